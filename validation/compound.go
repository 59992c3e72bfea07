// Copyright 2025 The ProfileKit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/profilekit-dev/profilefields/schema"
)

// Compound validators orchestrate nested validation: arrays of typed items
// and JSON objects carrying uploaded-file metadata. Nested problems get their
// own paths ("technologies[2]", "company_introduction_video.fileUrl") and the
// whole field is withheld from the sanitized output when any of them fail.

// Conventional keys for object-shaped array items.
const (
	itemKeyEmail = "email"
	itemKeyPhone = "phone_number"
)

// File metadata keys. fileName/filename and fileId/fileID are alias pairs;
// the camelCase spelling wins whenever both are present.
const (
	keyFileID      = "fileId"
	keyFileIDAlt   = "fileID"
	keyFileURL     = "fileUrl"
	keyFileName    = "fileName"
	keyFileNameAlt = "filename"
	keyUploadedAt  = "uploadedAt"
)

// validateArrayItems bounds the array length and, for email/phone item
// types, re-sanitizes and re-validates every element with a per-index error
// path. Other item types pass through unchanged.
func validateArrayItems(path string, items []any, r *schema.ArrayRules, custom string) (any, []FieldError) {
	if r.MaxItems != nil && len(items) > *r.MaxItems {
		return nil, []FieldError{{
			Path:    path,
			Code:    CodeMaxItems,
			Message: message(custom, fmt.Sprintf("%s must have at most %d items", path, *r.MaxItems)),
		}}
	}

	switch r.ItemType {
	case schema.TypeEmail:
		return normalizeItems(path, items, custom, itemKeyEmail, func(itemPath, s string) []FieldError {
			return validateEmail(itemPath, s, &schema.EmailRules{}, custom)
		}, sanitizeEmail)

	case schema.TypePhone:
		return normalizeItems(path, items, custom, itemKeyPhone, func(itemPath, s string) []FieldError {
			return validatePhone(itemPath, s, custom)
		}, sanitizePhone)

	default:
		return items, nil
	}
}

// normalizeItems validates each element (a bare scalar or an object carrying
// the value under key) and rebuilds the array in the canonical {key: value}
// shape.
func normalizeItems(
	path string,
	items []any,
	custom, key string,
	validate func(itemPath, s string) []FieldError,
	sanitize func(raw any) (string, bool),
) (any, []FieldError) {
	var errs []FieldError

	normalized := make([]any, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)

		raw := item
		if obj, ok := item.(map[string]any); ok {
			raw = obj[key]
		}

		s, ok := sanitize(raw)
		if !ok {
			errs = append(errs, typeError(itemPath, custom, "a string"))
			continue
		}
		if itemErrs := validate(itemPath, s); len(itemErrs) > 0 {
			errs = append(errs, itemErrs...)
			continue
		}

		normalized = append(normalized, map[string]any{key: s})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return normalized, nil
}

// validateFileMetadata checks an uploaded-file metadata object: required
// keys (with the fileName/filename pair counting as one logical key), the
// extension allow-list, and the nested fileUrl. On success it returns the
// canonical shape carrying fileId, fileUrl, both fileName spellings kept in
// sync, and uploadedAt.
func validateFileMetadata(path string, obj map[string]any, r *schema.JSONRules, custom string) (any, []FieldError) {
	var errs []FieldError

	for _, key := range r.RequiredKeys {
		logical, spellings := requiredKeySpellings(key)
		found := false
		for _, spelling := range spellings {
			if hasValue(obj, spelling) {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, FieldError{
				Path:    path,
				Code:    CodeRequiredKeys,
				Message: message(custom, fmt.Sprintf("%s is missing required key %q", path, logical)),
			})
		}
	}

	fileName, _ := alias(obj, keyFileName, keyFileNameAlt).(string)

	if len(r.AllowedExtensions) > 0 && fileName != "" {
		ext := normalizeExtension(filepath.Ext(fileName))
		if !extensionAllowed(ext, r.AllowedExtensions) {
			errs = append(errs, FieldError{
				Path: path,
				Code: CodeExtension,
				Message: message(custom, fmt.Sprintf("%s has disallowed file extension %q; allowed: [%s]",
					path, ext, strings.Join(r.AllowedExtensions, ", "))),
			})
		}
	}

	fileURL := obj[keyFileURL]
	if fileURL != nil {
		urlPath := path + "." + keyFileURL
		s, ok := sanitizeURL(fileURL)
		if !ok {
			errs = append(errs, typeError(urlPath, custom, "a string"))
		} else {
			errs = append(errs, validateURL(urlPath, s, &schema.URLRules{MustHaveProtocol: true}, custom)...)
			fileURL = s
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	canonical := map[string]any{
		keyFileID:      alias(obj, keyFileID, keyFileIDAlt),
		keyFileURL:     fileURL,
		keyFileName:    fileName,
		keyFileNameAlt: fileName,
		keyUploadedAt:  obj[keyUploadedAt],
	}

	return canonical, nil
}

// requiredKeySpellings maps a required key to its logical name and every
// spelling that satisfies it. The fileName/filename and fileId/fileID pairs
// each count as one logical key.
func requiredKeySpellings(key string) (string, []string) {
	switch key {
	case keyFileName, keyFileNameAlt:
		return keyFileName, []string{keyFileName, keyFileNameAlt}
	case keyFileID, keyFileIDAlt:
		return keyFileID, []string{keyFileID, keyFileIDAlt}
	default:
		return key, []string{key}
	}
}

// hasValue reports whether the key is present with a non-nil value.
func hasValue(obj map[string]any, key string) bool {
	v, ok := obj[key]
	return ok && v != nil
}

// alias returns the value under the primary key, falling back to the
// alternate spelling. The same precedence applies at every call site.
func alias(obj map[string]any, primary, alternate string) any {
	if v, ok := obj[primary]; ok && v != nil {
		return v
	}

	return obj[alternate]
}

// normalizeExtension lower-cases and strips the leading dot.
func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

// extensionAllowed compares dot- and case-insensitively.
func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == normalizeExtension(a) {
			return true
		}
	}

	return false
}
