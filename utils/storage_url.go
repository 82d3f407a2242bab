package utils

import (
	"net/url"
	"strings"
)

// BuildObjectAccessURL joins an uploaded file name onto the uploads base.
// A base containing "{objectKey}" is treated as a template.
func BuildObjectAccessURL(base, objectKey string) string {
	base = strings.TrimSpace(base)
	objectKey = strings.TrimLeft(strings.TrimSpace(objectKey), "/")
	if objectKey == "" {
		return ""
	}
	if base == "" {
		return objectKey
	}
	if strings.Contains(base, "{objectKey}") {
		escaped := objectKey
		if strings.Contains(base, "?") {
			escaped = url.QueryEscape(objectKey)
		}
		return strings.ReplaceAll(base, "{objectKey}", escaped)
	}
	if strings.Contains(base, "?") {
		return base + url.QueryEscape(objectKey)
	}
	return strings.TrimRight(base, "/") + "/" + objectKey
}
