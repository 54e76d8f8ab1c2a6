package matroska

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
)

type MatroskaAttachment struct {
	Data        []byte
	Description string
	FileName    string
	MimeType    string
	// Offset is the absolute position of Data in the file.
	Offset int64
}

func (m *MatroskaFile) readAttachmentsElement(ctx context.Context) ([]MatroskaAttachment, error) {
	attachmentsElement, attachmentsErr := m.navigator.fetchNamed(ctx, ElementAttachments.Name())
	if errors.Is(attachmentsErr, ErrElementNotFound) {
		return []MatroskaAttachment{}, nil
	}

	if attachmentsErr != nil {
		return nil, errors.Wrap(attachmentsErr, "failed to read attachments element")
	}

	attachments := []MatroskaAttachment{}
	for _, attachedFile := range attachmentsElement.Tree.ChildrenWithID(uint32(ElementAttachedFile)) {
		attachment := MatroskaAttachment{}

		for _, element := range attachedFile.Children {
			switch ElementId(element.ID) {
			case ElementFileName:
				attachment.FileName = element.Text()
			case ElementFileMimeType:
				attachment.MimeType = element.Text()
			case ElementFileDescription:
				attachment.Description = element.Text()
			case ElementFileData:
				attachment.Data = element.Data
				attachment.Offset = element.DataOffset()
			}
		}

		attachments = append(attachments, attachment)
	}

	return attachments, nil
}

// Attachments returns the files attached to the file, e.g. fonts used by
// SubStation Alpha subtitles.
func (m *MatroskaFile) Attachments(ctx context.Context) ([]MatroskaAttachment, error) {
	attachments, attachmentsErr := m.attachments.get(ctx, m.readAttachmentsElement)
	if attachmentsErr != nil {
		return nil, errors.Wrap(attachmentsErr, "failed to read attachments")
	}

	return slices.Clone(attachments), nil
}
