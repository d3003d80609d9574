package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size used when the limit parameter is absent.
	DefaultLimit = 10
	// MaxLimit is the largest accepted page size.
	MaxLimit = 100
)

// CreatePost is a decoded create-post body.
type CreatePost struct {
	AuthorName   string   `json:"author_name" validate:"min=1,max=128"`
	Content      string   `json:"content" validate:"min=1,max=10000"`
	Tags         []string `json:"tags" validate:"max=20"`
	ParentPostID *string  `json:"parent_post_id"`
}

// DecodeCreatePost parses a create-post body. "author" is accepted in place
// of "author_name" when the latter is absent. All field problems are
// returned together; the request is valid only when the slice is empty.
func DecodeCreatePost(data []byte) (*CreatePost, []FieldError) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, []FieldError{{Field: "body", Message: "Field required", Type: TypeMissing}}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, []FieldError{{
				Field:   "body",
				Message: "Input should be a valid dictionary or object to extract fields from",
				Type:    TypeObjectType,
			}}
		}
		return nil, []FieldError{{Field: "body", Message: "JSON decode error", Type: TypeJSONInvalid}}
	}
	if fields == nil {
		return nil, []FieldError{{Field: "body", Message: "Field required", Type: TypeMissing}}
	}

	var (
		req      CreatePost
		errs     []FieldError
		reported = map[string]bool{}
	)
	fail := func(fe FieldError) {
		errs = append(errs, fe)
		reported[fe.Field] = true
	}

	authorRaw, ok := fields["author_name"]
	if !ok {
		authorRaw, ok = fields["author"]
	}
	if fe := decodeString("body.author_name", authorRaw, ok, &req.AuthorName); fe != nil {
		fail(*fe)
	}

	contentRaw, ok := fields["content"]
	if fe := decodeString("body.content", contentRaw, ok, &req.Content); fe != nil {
		fail(*fe)
	}

	if raw, ok := fields["tags"]; ok {
		for _, fe := range decodeTags(raw, &req.Tags) {
			fail(fe)
		}
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	if raw, ok := fields["parent_post_id"]; ok && !isNull(raw) {
		var parent string
		if err := json.Unmarshal(raw, &parent); err != nil {
			fail(FieldError{Field: "body.parent_post_id", Message: "Input should be a valid string", Type: TypeStringType})
		} else {
			req.ParentPostID = &parent
		}
	}

	errs = append(errs, check("body", req, reported)...)
	if len(errs) > 0 {
		return nil, errs
	}
	return &req, nil
}

func decodeString(field string, raw json.RawMessage, present bool, dst *string) *FieldError {
	if !present {
		return &FieldError{Field: field, Message: "Field required", Type: TypeMissing}
	}
	if err := json.Unmarshal(raw, dst); err != nil || isNull(raw) {
		return &FieldError{Field: field, Message: "Input should be a valid string", Type: TypeStringType}
	}
	return nil
}

func decodeTags(raw json.RawMessage, dst *[]string) []FieldError {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || isNull(raw) {
		return []FieldError{{Field: "body.tags", Message: "Input should be a valid list", Type: TypeListType}}
	}

	var errs []FieldError
	tags := make([]string, 0, len(items))
	for i, item := range items {
		var tag string
		if err := json.Unmarshal(item, &tag); err != nil || isNull(item) {
			errs = append(errs, FieldError{
				Field:   "body.tags." + strconv.Itoa(i),
				Message: "Input should be a valid string",
				Type:    TypeStringType,
			})
			continue
		}
		tags = append(tags, tag)
	}
	*dst = tags
	return errs
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// ListPosts holds validated pagination parameters.
type ListPosts struct {
	Limit  int `json:"limit" validate:"gte=1,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// ParseListPosts reads limit and offset from a query string, applying the
// defaults for absent parameters.
func ParseListPosts(q url.Values) (*ListPosts, []FieldError) {
	req := ListPosts{Limit: DefaultLimit}
	var errs []FieldError
	reported := map[string]bool{}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &req.Limit},
		{"offset", &req.Offset},
	} {
		if !q.Has(p.name) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(q.Get(p.name)))
		if err != nil {
			field := "query." + p.name
			errs = append(errs, FieldError{
				Field:   field,
				Message: "Input should be a valid integer, unable to parse string as an integer",
				Type:    TypeIntParsing,
			})
			reported[field] = true
			continue
		}
		*p.dst = n
	}

	errs = append(errs, check("query", req, reported)...)
	if len(errs) > 0 {
		return nil, errs
	}
	return &req, nil
}
