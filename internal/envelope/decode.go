package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is a typed page of items.
type Page[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// Parse decodes a raw body. An empty body decodes to nil. Numbers are kept
// as json.Number so large identifiers survive the round trip.
func Parse(raw []byte) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("envelope: parsing body: %w", err)
	}
	return doc, nil
}

// Decode unwraps a raw body and converts the payload into T.
// A body with no payload leaves T at its zero value.
func Decode[T any](raw []byte) (T, error) {
	var out T
	doc, err := Parse(raw)
	if err != nil {
		return out, err
	}
	payload := Unwrap(doc)
	if payload == nil {
		return out, nil
	}
	if err := convert(payload, &out); err != nil {
		return out, fmt.Errorf("envelope: decoding payload into %T: %w", out, err)
	}
	return out, nil
}

// DecodeList unwraps a raw list body into a typed page.
func DecodeList[T any](raw []byte, opts ...ListOption) (Page[T], error) {
	page := Page[T]{Items: []T{}}
	doc, err := Parse(raw)
	if err != nil {
		page.Pagination = NewPaginationInfo(1, 0, 0, 1)
		return page, err
	}
	list := UnwrapList(doc, opts...)
	page.Pagination = list.Pagination
	if len(list.Items) == 0 {
		return page, nil
	}
	if err := convert(list.Items, &page.Items); err != nil {
		return page, fmt.Errorf("envelope: decoding items into %T: %w", page.Items, err)
	}
	return page, nil
}

// DecodeToken parses a login or refresh body and returns its tokens.
func DecodeToken(raw []byte) (access, refresh string, err error) {
	doc, err := Parse(raw)
	if err != nil {
		return "", "", err
	}
	return ExtractToken(doc), ExtractRefreshToken(doc), nil
}

func convert(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
