package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Multipart is a multipart/form-data request body. The client sends it as-is
// with its own boundary content type.
type Multipart struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	name     string
	filename string
	content  io.Reader
}

func NewMultipart() *Multipart {
	return &Multipart{}
}

// AddField appends a text field. Fields keep their insertion order.
func (m *Multipart) AddField(name, value string) *Multipart {
	m.fields = append(m.fields, formField{name: name, value: value})
	return m
}

// AddFile appends a file part read from content when the body is encoded.
func (m *Multipart) AddFile(name, filename string, content io.Reader) *Multipart {
	m.files = append(m.files, formFile{name: name, filename: filename, content: content})
	return m
}

// Field returns the first value of the named text field.
func (m *Multipart) Field(name string) (string, bool) {
	for _, f := range m.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return "", false
}

// HasFile reports whether a file part with the given field name was added.
func (m *Multipart) HasFile(name string) bool {
	for _, f := range m.files {
		if f.name == name {
			return true
		}
	}
	return false
}

// Encode renders the form and returns the body with its content type.
func (m *Multipart) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("[apiclient Multipart] write field %s: %w", f.name, err)
		}
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.name, f.filename)
		if err != nil {
			return nil, "", fmt.Errorf("[apiclient Multipart] create file part %s: %w", f.name, err)
		}
		if _, err := io.Copy(part, f.content); err != nil {
			return nil, "", fmt.Errorf("[apiclient Multipart] copy file %s: %w", f.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("[apiclient Multipart] close: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
