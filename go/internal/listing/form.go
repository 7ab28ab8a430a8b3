package listing

import (
	"net/url"

	"github.com/mcdev12/gavel/go/internal/models"
)

// FilePicker is the native file control. Detaching it keeps its binaries out
// of the form submission once image URLs carry the images.
type FilePicker struct {
	attached bool
	clears   int
}

// NewFilePicker returns an attached, empty picker
func NewFilePicker() *FilePicker {
	return &FilePicker{attached: true}
}

// Clear resets the picker's selection
func (p *FilePicker) Clear() { p.clears++ }

// Detach removes the picker from the submission
func (p *FilePicker) Detach() { p.attached = false }

// Attach puts the picker back into the submission
func (p *FilePicker) Attach() { p.attached = true }

func (p *FilePicker) Attached() bool { return p.attached }

// Clears returns how many times the selection was reset
func (p *FilePicker) Clears() int { return p.clears }

// Form is the listing-creation form
type Form struct {
	fields        url.Values
	imageURLs     []string
	picker        *FilePicker
	submitEnabled bool
	busy          bool
}

func NewForm() *Form {
	return &Form{
		fields:        url.Values{},
		picker:        NewFilePicker(),
		submitEnabled: true,
	}
}

// Set assigns an ordinary field. image_urls is managed separately.
func (f *Form) Set(field, value string) {
	if field == models.FieldImageURLs {
		return
	}
	f.fields.Set(field, value)
}

func (f *Form) Get(field string) string {
	return f.fields.Get(field)
}

func (f *Form) Picker() *FilePicker {
	return f.picker
}

// ImageURLs returns the hidden image_urls values in document order
func (f *Form) ImageURLs() []string {
	out := make([]string, len(f.imageURLs))
	copy(out, f.imageURLs)
	return out
}

func (f *Form) HasImageURLs() bool {
	return len(f.imageURLs) > 0
}

func (f *Form) appendImageURL(u string) {
	f.imageURLs = append(f.imageURLs, u)
}

func (f *Form) clearImageURLs() {
	f.imageURLs = nil
}

func (f *Form) SubmitEnabled() bool { return f.submitEnabled }
func (f *Form) Busy() bool          { return f.busy }

func (f *Form) setUploading(uploading bool) {
	f.submitEnabled = !uploading
	f.busy = uploading
}

// Values returns the encoded field set, image_urls repeated in order.
func (f *Form) Values() url.Values {
	out := url.Values{}
	for k, v := range f.fields {
		out[k] = append([]string(nil), v...)
	}
	for _, u := range f.imageURLs {
		out.Add(models.FieldImageURLs, u)
	}
	return out
}
