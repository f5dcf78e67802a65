package openapi

import (
	"fmt"
	"sort"
	"strings"
)

type openAPIDocumentBuilder struct {
	config generatorConfig
	root   map[string]any
}

func newOpenAPIDocumentBuilder(config generatorConfig, root map[string]any) *openAPIDocumentBuilder {
	return &openAPIDocumentBuilder{
		config: config,
		root:   root,
	}
}

func (b *openAPIDocumentBuilder) componentRef() string {
	return "#/components/schemas/" + b.config.rootComponent
}

func (b *openAPIDocumentBuilder) build() (map[string]any, error) {
	if b.root == nil {
		return nil, fmt.Errorf("openapi: root schema cannot be nil")
	}

	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    b.buildInfo(),
		"paths":   b.buildPaths(),
		"components": map[string]any{
			"schemas": map[string]any{
				b.config.rootComponent: b.root,
			},
		},
	}

	if err := validateDocument(document); err != nil {
		return nil, err
	}

	return document, nil
}

func (b *openAPIDocumentBuilder) buildInfo() map[string]any {
	info := map[string]any{
		"title":   b.config.info.Title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}
	return info
}

func (b *openAPIDocumentBuilder) buildPaths() map[string]any {
	method := strings.ToLower(b.config.operation.Method)
	if method == "" {
		method = "put"
	}

	content := map[string]any{
		b.config.contentType: map[string]any{
			"schema": map[string]any{
				"$ref": b.componentRef(),
			},
		},
	}

	responses := make(map[string]any, len(b.config.responses))
	statuses := make([]string, 0, len(b.config.responses))
	for status := range b.config.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		resp := b.config.responses[status]
		responses[status] = map[string]any{
			"description": resp.Description,
		}
	}

	operation := map[string]any{
		"operationId": b.operationID(),
		"requestBody": map[string]any{
			"required": true,
			"content":  content,
		},
		"responses": responses,
	}
	if summary := strings.TrimSpace(b.config.operation.Summary); summary != "" {
		operation["summary"] = summary
	}

	return map[string]any{
		b.config.operation.Path: map[string]any{
			method: operation,
		},
	}
}

func (b *openAPIDocumentBuilder) operationID() string {
	if b.config.operation.OperationID != "" {
		return b.config.operation.OperationID
	}
	method := strings.ToLower(b.config.operation.Method)
	if method == "" {
		method = "put"
	}
	return fmt.Sprintf("%s:%s", method, b.config.operation.Path)
}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	openapi, _ := document["openapi"].(string)
	if openapi == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for pathKey, pathValue := range paths {
		pathItem, _ := pathValue.(map[string]any)
		if pathItem == nil {
			return fmt.Errorf("openapi: path %q invalid payload", pathKey)
		}
		if len(pathItem) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", pathKey)
		}
		for method, operationValue := range pathItem {
			operation, _ := operationValue.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, pathKey)
			}
			if _, ok := operation["operationId"].(string); !ok {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, pathKey)
			}
			requestBody, _ := operation["requestBody"].(map[string]any)
			if requestBody == nil {
				return fmt.Errorf("openapi: operation %s %s missing requestBody", method, pathKey)
			}
			content, _ := requestBody["content"].(map[string]any)
			if len(content) == 0 {
				return fmt.Errorf("openapi: operation %s %s requestBody missing content", method, pathKey)
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, pathKey)
			}
		}
	}
	return nil
}
