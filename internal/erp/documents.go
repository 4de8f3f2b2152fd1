package erp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tallyforge/erpd/internal/frappe"
	"github.com/tallyforge/erpd/internal/result"
	"github.com/tallyforge/erpd/internal/validate"
)

const (
	// maxUploadBytes bounds the decoded size of an uploaded file.
	maxUploadBytes = 10 * 1024 * 1024

	// msgFileTooLarge is the fixed local-rejection text for oversized
	// uploads; the server-side equivalent is the translator's fallback.
	msgFileTooLarge = "File size exceeds maximum limit of 10MB"

	// maxCommentLen bounds a comment's length in characters.
	maxCommentLen = 10000

	// defaultSearchLimit is the autocomplete page size when the caller
	// passes no limit.
	defaultSearchLimit = 10
)

// ReplaceTable replaces a document's child table wholesale. The write is
// gated behind an existence read: when the GET fails, the PUT is never
// attempted and the read's translated error returns as-is.
func (s *Service) ReplaceTable(ctx context.Context, doctype, name, tableField string, rows []map[string]any) result.Result[TableReplaced] {
	op := opInfo{
		name:     "doc_replace_table",
		action:   "update",
		resource: doctype,
		notFound: fmt.Sprintf("%s/%s not found", doctype, name),
	}
	checks := []validate.Check{
		validate.Doctype("doctype", doctype),
		validate.NonEmpty("name", name),
		validate.NonEmpty("table_field", tableField),
		validate.NotNilSlice("rows", rows),
	}

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) (TableReplaced, *result.ErrorInfo) {
		if _, err := oc.client.GetDoc(ctx, doctype, name); err != nil {
			return TableReplaced{}, translate(err, op)
		}
		if _, err := oc.client.UpdateDoc(ctx, doctype, name, map[string]any{tableField: rows}); err != nil {
			return TableReplaced{}, translate(err, op)
		}
		return TableReplaced{
			Doctype:      doctype,
			Name:         name,
			TableField:   tableField,
			RowsReplaced: len(rows),
		}, nil
	})
}

// Autocomplete searches link targets for a doctype and normalizes the
// backend's mixed result shapes (array pairs, objects, bare strings) into
// a uniform value/label list. Label defaults to the value itself.
func (s *Service) Autocomplete(ctx context.Context, doctype, txt string, limit int) result.Result[[]Option] {
	op := opInfo{
		name:     "link_autocomplete",
		action:   "search",
		resource: doctype,
		notFound: fmt.Sprintf("Doctype %s not found or not searchable", doctype),
	}
	checks := []validate.Check{
		validate.Doctype("doctype", doctype),
		validate.NonEmpty("txt", txt),
		validate.OptionalPositive("limit", limit),
	}

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) ([]Option, *result.ErrorInfo) {
		pageLength := limit
		if pageLength == 0 {
			pageLength = defaultSearchLimit
		}
		params := url.Values{}
		params.Set("doctype", doctype)
		params.Set("txt", txt)
		params.Set("page_length", strconv.Itoa(pageLength))

		raw, err := oc.client.Call(ctx, "frappe.desk.search.search_link", params)
		if err != nil {
			return nil, translate(err, op)
		}
		return normalizeOptions(raw), nil
	})
}

// normalizeOptions flattens the search endpoint's result shapes. Entries
// that yield no usable value are dropped.
func normalizeOptions(raw json.RawMessage) []Option {
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []Option{}
	}

	options := make([]Option, 0, len(entries))
	for _, entry := range entries {
		var opt Option
		switch v := entry.(type) {
		case string:
			opt = Option{Value: v, Label: v}
		case []any:
			if len(v) == 0 {
				continue
			}
			value, _ := v[0].(string)
			opt = Option{Value: value, Label: value}
			if len(v) > 1 {
				if label, ok := v[1].(string); ok && label != "" {
					opt.Label = label
				}
			}
		case map[string]any:
			value := docString(v, "value")
			opt = Option{
				Value: value,
				Label: firstNonEmpty(docString(v, "label"), docString(v, "description"), value),
			}
		default:
			continue
		}
		if opt.Value == "" {
			continue
		}
		options = append(options, opt)
	}
	return options
}

// UploadFile decodes and uploads a base64 file body, optionally attaching
// it to an existing document. Oversized payloads are rejected from the
// encoded length before any decoding or transport work.
func (s *Service) UploadFile(ctx context.Context, p UploadParams) result.Result[UploadedFile] {
	notFound := "File not found"
	if p.AttachToDoctype != "" {
		notFound = fmt.Sprintf("%s/%s not found", p.AttachToDoctype, p.AttachToName)
	}
	op := opInfo{
		name:     "file_upload",
		action:   "upload",
		resource: "File",
		notFound: notFound,
		fallback: "File size exceeds server limits",
	}
	checks := []validate.Check{
		validate.Required("filename", p.Filename),
		validate.Required("content", p.Content),
		validate.Base64("content", p.Content),
		validate.MaxDecodedSize(p.Content, maxUploadBytes, msgFileTooLarge),
	}

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) (UploadedFile, *result.ErrorInfo) {
		data, err := base64.StdEncoding.DecodeString(p.Content)
		if err != nil {
			return UploadedFile{}, result.Errorf(result.FieldError, "content must be valid base64")
		}

		doc, err := oc.client.Upload(ctx, p.Filename, data, frappe.UploadOptions{
			Doctype: p.AttachToDoctype,
			Docname: p.AttachToName,
			Private: p.Private,
		})
		if err != nil {
			return UploadedFile{}, translate(err, op)
		}

		fileURL := docString(doc, "file_url")
		if fileURL == "" {
			return UploadedFile{}, missingField(op, "file_url")
		}

		size := int(docFloat(doc, "file_size"))
		if size == 0 {
			size = len(data)
		}
		return UploadedFile{
			FileName: firstNonEmpty(docString(doc, "file_name"), p.Filename),
			FileURL:  fileURL,
			Size:     size,
		}, nil
	})
}

// AddComment records a comment on an existing document.
func (s *Service) AddComment(ctx context.Context, doctype, name, comment string) result.Result[CommentAdded] {
	op := opInfo{
		name:     "comment_add",
		action:   "comment on",
		resource: doctype,
		notFound: fmt.Sprintf("%s/%s not found", doctype, name),
	}
	checks := []validate.Check{
		validate.Doctype("doctype", doctype),
		validate.NonEmpty("name", name),
		validate.Required("comment", comment),
		validate.MaxLen("comment", comment, maxCommentLen),
	}

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) (CommentAdded, *result.ErrorInfo) {
		_, err := oc.client.Post(ctx, "frappe.client.add_comment", map[string]any{
			"reference_doctype": doctype,
			"reference_name":    name,
			"content":           comment,
		})
		if err != nil {
			return CommentAdded{}, translate(err, op)
		}
		return CommentAdded{Doctype: doctype, Name: name, Comment: comment}, nil
	})
}
