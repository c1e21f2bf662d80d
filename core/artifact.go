package core

// FileArtifact is the processed form of an uploaded file as handed over by
// the upload/extraction layer, which is outside the core. Exactly one of Text
// or ImageBase64 is normally populated: document formats yield extracted
// text, image formats yield a base64 payload for inline model delivery.
type FileArtifact struct {
	Filename    string
	FileType    string // pdf, docx, txt, md, png, jpg, jpeg
	Text        string
	ImageBase64 string
}

// IsImage reports whether the artifact carries an inline image payload.
func (f FileArtifact) IsImage() bool { return f.ImageBase64 != "" }
