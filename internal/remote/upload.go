package remote

import (
	"context"

	"github.com/rutero-app/fieldsync/internal/filex"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/netx"
)

// UploadAttachment registers the attachment metadata with the service,
// materializes the stored binary to spoolDir and PUTs it to the presigned
// URL from the ticket. It returns the assigned remote attachment id. The
// spool file is removed whatever the upload outcome.
func UploadAttachment(ctx context.Context, svc Service, a *models.Attachment, spoolDir string) (string, error) {
	ticket, err := svc.CreateAttachment(ctx, a)
	if err != nil {
		return "", err
	}

	path, err := filex.Materialize(spoolDir, a.Name, a.Data)
	if err != nil {
		return "", err
	}
	defer filex.Discard(path)

	if err := netx.UploadToPresignedURL(ctx, ticket.UploadURL, path, a.MimeType); err != nil {
		return "", err
	}
	return ticket.RemoteID, nil
}
