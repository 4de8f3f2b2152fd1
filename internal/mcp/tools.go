package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tallyforge/erpd/internal/erp"
	"github.com/tallyforge/erpd/internal/logging"
	"github.com/tallyforge/erpd/internal/result"
)

// toolHandler adapts an operation returning the uniform envelope to the
// SDK's handler shape. It tags the context for log correlation, records
// invocation metrics, and renders failures as IsError results; the error
// return stays nil so domain failures never become protocol errors.
func toolHandler[In, Out any](s *Server, name string, run func(context.Context, In) result.Result[Out], describe func(*Out) string) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, result.Result[Out], error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args In) (*mcp.CallToolResult, result.Result[Out], error) {
		ctx = logging.WithOperation(ctx, name)
		ctx = logging.WithRequestID(ctx, uuid.New().String())

		start := time.Now()
		s.metrics.IncrementActive(ctx, name)
		defer s.metrics.DecrementActive(ctx, name)

		res := run(ctx, args)

		var code string
		if res.Err != nil {
			code = string(res.Err.Code)
		}
		s.metrics.RecordInvocation(ctx, name, time.Since(start), code)

		return toolResult(res, describe), res, nil
	}
}

// toolResult renders the envelope's text form: a one-line summary on
// success, the coded message on failure.
func toolResult[T any](res result.Result[T], describe func(*T) string) *mcp.CallToolResult {
	if !res.OK {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: res.Err.Error()},
			},
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: describe(res.Data)},
		},
	}
}

// ===== DOCUMENT TOOLS =====

type replaceTableInput struct {
	Doctype    string           `json:"doctype" jsonschema:"required,Doctype of the target document"`
	Name       string           `json:"name" jsonschema:"required,Document name"`
	TableField string           `json:"table_field" jsonschema:"required,Fieldname of the child table to replace"`
	Rows       []map[string]any `json:"rows" jsonschema:"required,Replacement rows; an empty array clears the table"`
}

type autocompleteInput struct {
	Doctype string `json:"doctype" jsonschema:"required,Doctype whose records to search"`
	Txt     string `json:"txt" jsonschema:"required,Search text fragment"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum suggestions to return (default 10)"`
}

type uploadInput struct {
	Filename        string `json:"filename" jsonschema:"required,File name including extension"`
	Content         string `json:"content" jsonschema:"required,Base64-encoded file body; decoded size is capped at 10MB"`
	AttachToDoctype string `json:"attach_to_doctype,omitempty" jsonschema:"Doctype of the document to attach the file to"`
	AttachToName    string `json:"attach_to_name,omitempty" jsonschema:"Name of the document to attach the file to"`
	Private         bool   `json:"private,omitempty" jsonschema:"Store the file as private"`
}

type commentInput struct {
	Doctype string `json:"doctype" jsonschema:"required,Doctype of the target document"`
	Name    string `json:"name" jsonschema:"required,Document name"`
	Comment string `json:"comment" jsonschema:"required,Comment text; capped at 10000 characters"`
}

func (s *Server) registerDocumentTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "doc_replace_table",
		Description: "Replace an entire child table on an existing document. The document is read first; the write only happens when it exists.",
	}, toolHandler(s, "doc_replace_table",
		func(ctx context.Context, args replaceTableInput) result.Result[erp.TableReplaced] {
			return s.ops.ReplaceTable(ctx, args.Doctype, args.Name, args.TableField, args.Rows)
		},
		func(out *erp.TableReplaced) string {
			return fmt.Sprintf("Replaced %s on %s/%s (%d rows)", out.TableField, out.Doctype, out.Name, out.RowsReplaced)
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "link_autocomplete",
		Description: "Search link field options for a doctype by text fragment. Returns value and label pairs for filling link fields.",
	}, toolHandler(s, "link_autocomplete",
		func(ctx context.Context, args autocompleteInput) result.Result[[]erp.Option] {
			return s.ops.Autocomplete(ctx, args.Doctype, args.Txt, args.Limit)
		},
		func(out *[]erp.Option) string {
			return fmt.Sprintf("%d suggestions", len(*out))
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "file_upload",
		Description: "Upload a base64-encoded file to the backend and optionally attach it to an existing document.",
	}, toolHandler(s, "file_upload",
		func(ctx context.Context, args uploadInput) result.Result[erp.UploadedFile] {
			return s.ops.UploadFile(ctx, erp.UploadParams{
				Filename:        args.Filename,
				Content:         args.Content,
				AttachToDoctype: args.AttachToDoctype,
				AttachToName:    args.AttachToName,
				Private:         args.Private,
			})
		},
		func(out *erp.UploadedFile) string {
			return fmt.Sprintf("Uploaded %s (%d bytes) to %s", out.FileName, out.Size, out.FileURL)
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "comment_add",
		Description: "Add a comment to an existing document's activity feed.",
	}, toolHandler(s, "comment_add",
		func(ctx context.Context, args commentInput) result.Result[erp.CommentAdded] {
			return s.ops.AddComment(ctx, args.Doctype, args.Name, args.Comment)
		},
		func(out *erp.CommentAdded) string {
			return fmt.Sprintf("Comment added to %s/%s", out.Doctype, out.Name)
		},
	))
}
