package openapi

import "strings"

const (
	defaultOpenAPIVersion = "3.0.3"
	defaultTitle          = "Configuration Tree"
	defaultInfoVersion    = "1.0.0"
	defaultPath           = "/config"
	defaultMethod         = "put"
	defaultContentType    = "application/json"
	defaultRootComponent  = "Config"
)

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	operation      operationConfig
	contentType    string
	responses      map[string]responseConfig
	rootComponent  string
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

// operationConfig is the single operation that accepts a whole tree as its
// request body.
type operationConfig struct {
	Path        string
	Method      string
	OperationID string
	Summary     string
}

type responseConfig struct {
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: defaultOpenAPIVersion,
		info:           openapiInfo{Title: defaultTitle, Version: defaultInfoVersion},
		operation: operationConfig{
			Path:        defaultPath,
			Method:      defaultMethod,
			OperationID: defaultMethod + ":" + defaultPath,
		},
		contentType:   defaultContentType,
		responses:     map[string]responseConfig{"204": {Description: "OK"}},
		rootComponent: defaultRootComponent,
	}
}

// override replaces *dst unless value is empty.
func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func apply[T any](target *T, opts []func(*T)) {
	for _, opt := range opts {
		if opt != nil {
			opt(target)
		}
	}
}

// GeneratorOption configures a Generator. Empty strings given to any option
// keep the current value.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion sets the "openapi" field (default 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) { override(&cfg.openAPIVersion, version) }
}

// InfoOption sets optional fields of the info block.
type InfoOption = func(*openapiInfo)

// WithInfoDescription describes the document in its info block.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) { info.Description = description }
}

// WithInfo sets the document title and version.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		override(&cfg.info.Title, title)
		override(&cfg.info.Version, version)
		apply(&cfg.info, opts)
	}
}

// OperationOption sets optional fields of the operation.
type OperationOption = func(*operationConfig)

// WithOperationSummary sets the operation summary.
func WithOperationSummary(summary string) OperationOption {
	return func(op *operationConfig) { op.Summary = summary }
}

// WithOperation sets where the tree is accepted. The method is lowercased.
func WithOperation(path, method, operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		override(&cfg.operation.Path, path)
		override(&cfg.operation.Method, strings.ToLower(method))
		override(&cfg.operation.OperationID, operationID)
		apply(&cfg.operation, opts)
	}
}

// WithContentType sets the request body media type (default
// application/json).
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) { override(&cfg.contentType, contentType) }
}

// ResponseOption sets optional fields of a response.
type ResponseOption = func(*responseConfig)

// WithResponse adds or changes the response for status. The default 204
// response stays unless it is changed here.
func WithResponse(status, description string, opts ...ResponseOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status == "" {
			return
		}
		if cfg.responses == nil {
			cfg.responses = map[string]responseConfig{}
		}
		resp := cfg.responses[status]
		override(&resp.Description, description)
		apply(&resp, opts)
		cfg.responses[status] = resp
	}
}

// WithRootComponent names the component holding the tree schema (default
// Config).
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) { override(&cfg.rootComponent, name) }
}
