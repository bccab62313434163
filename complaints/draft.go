package complaints

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/users"
)

const (
	MaxImageBytes         = 10 * 1024 * 1024
	MaxTitleLength        = 255
	MaxDescriptionLength  = 500
	MaxContactNameLength  = 150
	MaxContactPhoneLength = 50
	MaxContactEmailLength = 150
	MaxAddressLength      = 500
)

const (
	msgLocationRequired = "Pick a location on the map so our crews know where to go."
	msgSeverityRequired = "Let us know how urgent this feels so we can triage it properly."
	msgImageTooLarge    = "This photo is a bit too heavy. Please pick an image under 10 MB."
)

// ValidationError is a draft problem caught before anything is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return errors.ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Image is a photo attached to a draft. The draft owns the underlying
// reader; Release closes it and is safe to call more than once.
type Image struct {
	Name        string
	Size        int64
	ContentType string

	once    sync.Once
	content io.Reader
}

// OpenImage opens the file at path for attaching to a draft.
func OpenImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[complaints OpenImage] %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("[complaints OpenImage] stat %s: %w", path, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("[complaints OpenImage] %s is a directory", path)
	}
	return NewImage(filepath.Base(path), info.Size(), f), nil
}

// NewImage wraps content as an attachment. When content is an io.Closer it
// is closed on Release.
func NewImage(name string, size int64, content io.Reader) *Image {
	return &Image{
		Name:        name,
		Size:        size,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		content:     content,
	}
}

// Release frees the attachment.
func (img *Image) Release() {
	if img == nil {
		return
	}
	img.once.Do(func() {
		if c, ok := img.content.(io.Closer); ok {
			_ = c.Close()
		}
		img.content = nil
	})
}

// reader rewinds seekable content so a failed submit can be retried.
func (img *Image) reader() (io.Reader, error) {
	if img.content == nil {
		return nil, fmt.Errorf("[complaints Image] %s has been released", img.Name)
	}
	if s, ok := img.content.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("[complaints Image] rewind %s: %w", img.Name, err)
		}
	}
	return img.content, nil
}

// Draft is a complaint being composed. Location and Severity start unset.
type Draft struct {
	Category     Category
	Title        string
	Description  string
	Severity     Severity
	ContactName  string
	ContactPhone string
	ContactEmail string
	Address      string
	Location     *Location

	image *Image
}

// AttachImage replaces the draft's image, releasing the previous one. A nil
// image removes the attachment.
func (d *Draft) AttachImage(img *Image) {
	if d.image != nil && d.image != img {
		d.image.Release()
	}
	d.image = img
}

func (d *Draft) Image() *Image {
	return d.image
}

// Discard releases everything the draft holds.
func (d *Draft) Discard() {
	d.AttachImage(nil)
}

// Validate checks the draft in a fixed order and returns the first problem.
// maxImageBytes <= 0 means MaxImageBytes.
func (d *Draft) Validate(maxImageBytes int64) error {
	if maxImageBytes <= 0 {
		maxImageBytes = MaxImageBytes
	}

	if d.Location == nil {
		return invalid("location", msgLocationRequired)
	}
	if !d.Location.Valid() {
		return invalid("location", "That pin is outside the map. Please pick the location again.")
	}
	if d.Severity == "" {
		return invalid("severity", msgSeverityRequired)
	}
	if !d.Severity.Valid() {
		return invalid("severity", "Severity must be one of %s", joinValues(Severities))
	}

	if d.Category == "" {
		return invalid("category", "Category is required")
	}
	if !d.Category.Valid() {
		return invalid("category", "Category must be one of %s", joinValues(Categories))
	}
	if err := requireText("title", "Title", d.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := requireText("description", "Description", d.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if err := requireText("contactName", "Contact name", d.ContactName, MaxContactNameLength); err != nil {
		return err
	}
	if err := requireText("contactPhone", "Contact phone", d.ContactPhone, MaxContactPhoneLength); err != nil {
		return err
	}
	if err := requireText("contactEmail", "Contact email", d.ContactEmail, MaxContactEmailLength); err != nil {
		return err
	}
	if users.ValidateEmail(d.ContactEmail) != nil {
		return invalid("contactEmail", "Please provide a valid contact email")
	}
	if utf8.RuneCountInString(d.Address) > MaxAddressLength {
		return invalid("address", "Address must be %d characters or less", MaxAddressLength)
	}

	if d.image != nil && d.image.Size > maxImageBytes {
		return invalid("image", msgImageTooLarge)
	}
	return nil
}

func requireText(field, label, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "%s is required", label)
	}
	if utf8.RuneCountInString(value) > max {
		return invalid(field, "%s must be %d characters or less", label, max)
	}
	return nil
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
