package model

// FieldKind enumerates the question types available in the builder palette.
type FieldKind string

const (
	FieldKindShortText  FieldKind = "SHORT_TEXT"
	FieldKindLongText   FieldKind = "LONG_TEXT"
	FieldKindNumber     FieldKind = "NUMBER"
	FieldKindDatePicker FieldKind = "DATE_PICKER"
	FieldKindDropdown   FieldKind = "DROPDOWN"
	FieldKindFileUpload FieldKind = "FILE_UPLOAD"
)

// FieldKinds lists the palette in display order.
var FieldKinds = []FieldKind{
	FieldKindShortText,
	FieldKindLongText,
	FieldKindDatePicker,
	FieldKindDropdown,
	FieldKindFileUpload,
	FieldKindNumber,
}

// Valid reports whether k is one of the known kinds.
func (k FieldKind) Valid() bool {
	for _, known := range FieldKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Label returns the palette label shown to admins.
func (k FieldKind) Label() string {
	switch k {
	case FieldKindShortText:
		return "Short Text"
	case FieldKindLongText:
		return "Long Text"
	case FieldKindNumber:
		return "Number"
	case FieldKindDatePicker:
		return "Date Picker"
	case FieldKindDropdown:
		return "Dropdown"
	case FieldKindFileUpload:
		return "File Upload"
	default:
		return string(k)
	}
}

// SelectionType controls whether a dropdown accepts one or many values.
type SelectionType string

const (
	SelectionSingle SelectionType = "SINGLE"
	SelectionMulti  SelectionType = "MULTI"
)

func (s SelectionType) Valid() bool {
	return s == SelectionSingle || s == SelectionMulti
}

// DateFormat is the display format configured on a date picker.
type DateFormat string

const (
	DateFormatDayFirst   DateFormat = "DD/MM/YYYY"
	DateFormatMonthFirst DateFormat = "MM-DD-YYYY"
)

func (d DateFormat) Valid() bool {
	return d == DateFormatDayFirst || d == DateFormatMonthFirst
}

// Layout converts the format into a Go time layout.
func (d DateFormat) Layout() string {
	if d == DateFormatMonthFirst {
		return "01-02-2006"
	}
	return "02/01/2006"
}

// DropdownOption is one selectable value of a dropdown field.
type DropdownOption struct {
	ID    int    `json:"id" binding:"min=1"`
	Value string `json:"value" binding:"max=100"`
}

// Field is one question definition within a form.
// Kind-specific attributes stay empty for the other kinds.
type Field struct {
	ID              string    `json:"id"`
	Kind            FieldKind `json:"kind"`
	Question        string    `json:"question"`
	Description     string    `json:"description"`
	ShowDescription bool      `json:"show_description"`
	Required        bool      `json:"required"`

	// Dropdown
	Options       []DropdownOption `json:"options,omitempty"`
	SelectionType SelectionType    `json:"selection_type,omitempty"`

	// File upload
	AllowedFormats []string `json:"allowed_formats,omitempty"`
	MaxSizeMB      float64  `json:"max_size_mb,omitempty"`
	AllowMultiple  bool     `json:"allow_multiple,omitempty"`

	// Date picker
	DateFormat DateFormat `json:"date_format,omitempty"`
}

// Clone returns a deep copy of f.
func (f Field) Clone() Field {
	out := f
	if f.Options != nil {
		out.Options = make([]DropdownOption, len(f.Options))
		copy(out.Options, f.Options)
	}
	if f.AllowedFormats != nil {
		out.AllowedFormats = make([]string, len(f.AllowedFormats))
		copy(out.AllowedFormats, f.AllowedFormats)
	}
	return out
}

// IsMultiSelect reports whether f is a dropdown accepting several values.
func (f Field) IsMultiSelect() bool {
	return f.Kind == FieldKindDropdown && f.SelectionType == SelectionMulti
}

// HasOptionValue reports whether one of the dropdown options carries value.
func (f Field) HasOptionValue(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// FieldPatch is a partial update to a field. Nil members are left untouched.
// A non-nil empty Options slice means "set to empty" and is rejected.
type FieldPatch struct {
	Kind            *FieldKind       `json:"kind" binding:"omitempty,fieldkind"`
	Question        *string          `json:"question" binding:"omitempty,max=150"`
	Description     *string          `json:"description" binding:"omitempty,max=300"`
	ShowDescription *bool            `json:"show_description"`
	Required        *bool            `json:"required"`
	Options         []DropdownOption `json:"options" binding:"omitempty,dive"`
	SelectionType   *SelectionType   `json:"selection_type" binding:"omitempty,selectiontype"`
	AllowedFormats  []string         `json:"allowed_formats" binding:"omitempty,dive,min=1,max=10"`
	MaxSizeMB       *float64         `json:"max_size_mb" binding:"omitempty,gt=0"`
	AllowMultiple   *bool            `json:"allow_multiple"`
	DateFormat      *DateFormat      `json:"date_format" binding:"omitempty,dateformat"`
}
