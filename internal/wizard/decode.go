package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"

	"github.com/go-playground/form"

	"jobmate/intake-service/internal/intake"
)

// DecodeJSON decodes a JSON draft for step. Unknown fields are rejected so
// typos surface as 400s instead of silently missing answers.
func DecodeJSON(step intake.Step, raw []byte) (intake.StepData, error) {
	switch step {
	case intake.StepPersonalInfo:
		return decodeJSON[intake.PersonalInfo](raw)
	case intake.StepJobDetails:
		return decodeJSON[intake.JobDetails](raw)
	case intake.StepSkillsPreferences:
		return decodeJSON[intake.SkillsPreferences](raw)
	case intake.StepEmergencyContact:
		return decodeJSON[intake.EmergencyContact](raw)
	case intake.StepReview:
		return decodeJSON[intake.Confirmation](raw)
	}
	return nil, intake.ErrSubmitted
}

func decodeJSON[T intake.StepData](raw []byte) (intake.StepData, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode %s: %w", v.Step(), err)
	}
	return v, nil
}

// FormDecoder decodes url-encoded and multipart drafts.
type FormDecoder struct {
	dec *form.Decoder
}

// NewFormDecoder returns a decoder that understands intake.Date values.
func NewFormDecoder() *FormDecoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return intake.ParseDate(vals[0])
	}, intake.Date{})
	return &FormDecoder{dec: d}
}

// Decode decodes values into the draft type of step. A "profilePic" file in
// files is attached to a PersonalInfo draft.
func (fd *FormDecoder) Decode(step intake.Step, values url.Values, files map[string][]*multipart.FileHeader) (intake.StepData, error) {
	switch step {
	case intake.StepPersonalInfo:
		var p intake.PersonalInfo
		if err := fd.dec.Decode(&p, values); err != nil {
			return nil, fmt.Errorf("decode %s: %w", step, err)
		}
		if fh := files["profilePic"]; len(fh) > 0 {
			pic, err := readProfileImage(fh[0])
			if err != nil {
				return nil, err
			}
			p.ProfilePic = pic
		}
		return p, nil
	case intake.StepJobDetails:
		return decodeForm[intake.JobDetails](fd.dec, values)
	case intake.StepSkillsPreferences:
		return decodeForm[intake.SkillsPreferences](fd.dec, values)
	case intake.StepEmergencyContact:
		return decodeForm[intake.EmergencyContact](fd.dec, values)
	case intake.StepReview:
		return decodeForm[intake.Confirmation](fd.dec, values)
	}
	return nil, intake.ErrSubmitted
}

func decodeForm[T intake.StepData](dec *form.Decoder, values url.Values) (intake.StepData, error) {
	var v T
	if err := dec.Decode(&v, values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", v.Step(), err)
	}
	return v, nil
}

// readProfileImage reads at most one byte past the size limit, which is
// enough for the rules to reject an oversized upload.
func readProfileImage(fh *multipart.FileHeader) (*intake.ProfileImage, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open profilePic: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, intake.MaxProfileImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read profilePic: %w", err)
	}
	return &intake.ProfileImage{
		Name: fh.Filename,
		MIME: fh.Header.Get("Content-Type"),
		Size: fh.Size,
		Data: data,
	}, nil
}
