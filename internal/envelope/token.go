package envelope

var accessTokenPaths = []string{
	"data.data.accessToken",
	"data.accessToken",
	"data.access_token",
	"data.token",
	"accessToken",
	"access_token",
	"token",
}

var refreshTokenPaths = []string{
	"data.data.refreshToken",
	"data.refreshToken",
	"data.refresh_token",
	"refreshToken",
	"refresh_token",
}

var errorMessagePaths = []string{
	"error.message",
	"message",
	"error",
	"msg",
	"error.description",
}

var errorCodePaths = []string{
	"error.code",
	"code",
}

// ExtractToken returns the access token from a login or refresh response,
// or "" when no known location holds a non-empty string.
func ExtractToken(resp any) string {
	return firstString(resp, accessTokenPaths...)
}

// ExtractRefreshToken returns the refresh token from a login or refresh
// response, or "".
func ExtractRefreshToken(resp any) string {
	return firstString(resp, refreshTokenPaths...)
}

// ErrorMessage returns the server-provided error message of a failed
// response body, or "".
func ErrorMessage(resp any) string {
	return firstString(resp, errorMessagePaths...)
}

// ErrorCode returns the machine-readable error code of a failed response
// body, or "".
func ErrorCode(resp any) string {
	return firstString(resp, errorCodePaths...)
}
