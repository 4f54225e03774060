package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	toolTransformPath    = "transform_path"
	toolPreviewPropTypes = "preview_prop_types"
	toolInferPropType    = "infer_prop_type"
	toolFixHooksDeps     = "fix_hooks_deps"
	toolFixUnusedImports = "fix_unused_imports"
)

func transformPathTool() mcp.Tool {
	return mcp.NewTool(toolTransformPath,
		mcp.WithDescription("Add or update PropTypes declarations for every React component under a file or directory. Files are rewritten in place."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File or directory to process")),
	)
}

func previewPropTypesTool() mcp.Tool {
	return mcp.NewTool(toolPreviewPropTypes,
		mcp.WithDescription("Return a file as it would look after the PropTypes pass, without writing it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path; selects the grammar and the consumers used for inference")),
		mcp.WithString("code", mcp.Description("Source to use instead of the file content")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func inferPropTypeTool() mcp.Tool {
	return mcp.NewTool(toolInferPropType,
		mcp.WithDescription("Infer the PropTypes validator for a prop name."),
		mcp.WithString("prop", mcp.Required(), mcp.Description("Prop name")),
		mcp.WithString("component", mcp.Description("Component name, for component-specific tables")),
		mcp.WithString("default",
			mcp.Description("Kind of the default value literal, if any"),
			mcp.Enum("string", "number", "bool", "null", "array", "object", "function"),
		),
		mcp.WithString("ident", mcp.Description("PropTypes identifier to render with (default PropTypes)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func fixHooksDepsTool() mcp.Tool {
	return mcp.NewTool(toolFixHooksDeps,
		mcp.WithDescription("Add the identifiers ESLint reports as missing to hook dependency arrays under a file or directory."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File or directory to process")),
	)
}

func fixUnusedImportsTool() mcp.Tool {
	return mcp.NewTool(toolFixUnusedImports,
		mcp.WithDescription("Remove import bindings ESLint reports as unused under a file or directory. Other unused names are only reported."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File or directory to process")),
	)
}
