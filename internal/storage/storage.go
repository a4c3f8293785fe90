// Package storage persists uploaded files and returns the path under which
// they were stored.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/types"
)

// Upload limits
const (
	MaxAttachmentSize     = 10 << 20
	MaxAttachmentsPerCall = 5
	MaxPictureSize        = 5 << 20
)

// Object is an uploaded file held in memory.
type Object struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Storage saves objects.
type Storage interface {
	Save(ctx context.Context, obj Object) (string, error)
}

var attachmentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
}

var pictureTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// DetectContentType returns the declared type of obj, falling back to
// sniffing the bytes when none was declared.
func DetectContentType(obj Object) string {
	ct := strings.TrimSpace(strings.SplitN(obj.ContentType, ";", 2)[0])
	if ct == "" || ct == "application/octet-stream" {
		ct = strings.SplitN(http.DetectContentType(obj.Data), ";", 2)[0]
	}
	return strings.ToLower(ct)
}

// CheckAttachments validates a batch of application attachments.
func CheckAttachments(objs []Object) error {
	if len(objs) == 0 {
		return types.NewValidation("attachments", "Please upload at least one file")
	}
	if len(objs) > MaxAttachmentsPerCall {
		return types.NewValidation("attachments", fmt.Sprintf("A maximum of %d files can be uploaded at once", MaxAttachmentsPerCall))
	}
	for _, obj := range objs {
		if len(obj.Data) > MaxAttachmentSize {
			return types.NewValidation("attachments", fmt.Sprintf("%s exceeds the 10MB limit", obj.FileName))
		}
		if !attachmentTypes[DetectContentType(obj)] {
			return types.NewValidation("attachments", "Invalid file type. Only PDF, DOC, DOCX and images are allowed")
		}
	}
	return nil
}

// CheckPicture validates a profile picture upload.
func CheckPicture(obj Object) error {
	if len(obj.Data) == 0 {
		return types.NewValidation("profile_picture", "Please upload a file")
	}
	if len(obj.Data) > MaxPictureSize {
		return types.NewValidation("profile_picture", "Profile picture exceeds the 5MB limit")
	}
	if !pictureTypes[DetectContentType(obj)] {
		return types.NewValidation("profile_picture", "Only JPEG and PNG images are allowed")
	}
	return nil
}

// objectName builds a unique, date-partitioned name that keeps the
// original extension.
func objectName(now time.Time, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%04d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}
