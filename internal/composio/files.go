package composio

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mediareport/internal/constants"
	apperrors "mediareport/pkg/errors"
	"mediareport/pkg/metrics"
)

type uploadRequest struct {
	ToolkitSlug string `json:"toolkit_slug"`
	ToolSlug    string `json:"tool_slug"`
	FileName    string `json:"filename"`
	MimeType    string `json:"mimetype"`
	MD5         string `json:"md5"`
}

type uploadResponse struct {
	Key                string `json:"key"`
	NewPresignedURL    string `json:"new_presigned_url"`
	NewPresignedURLAlt string `json:"newPresignedUrl"`
}

func (r uploadResponse) presignedURL() string {
	if r.NewPresignedURL != "" {
		return r.NewPresignedURL
	}
	return r.NewPresignedURLAlt
}

// Upload stores data in Composio file storage so it can be attached to a
// Gmail reply, and returns the storage key.
func (c *Client) Upload(ctx context.Context, data []byte, fileName, mimeType string) (string, error) {
	if len(data) == 0 || fileName == "" {
		return "", apperrors.ErrValidation.WithCause(errors.New("file content or name is missing"))
	}

	sum := md5.Sum(data)
	var grant uploadResponse
	err := c.postJSON(ctx, constants.CollaboratorStorage, uploadRequestPath, uploadRequest{
		ToolkitSlug: ToolkitGmail,
		ToolSlug:    ToolReplyToThread,
		FileName:    fileName,
		MimeType:    mimeType,
		MD5:         hex.EncodeToString(sum[:]),
	}, &grant)
	if err != nil {
		return "", apperrors.Upstream(constants.CollaboratorStorage, fmt.Errorf("upload request failed: %w", err))
	}
	if grant.Key == "" || grant.presignedURL() == "" {
		return "", apperrors.Upstream(constants.CollaboratorStorage, errors.New("invalid upload response: missing key or url"))
	}

	if err := c.put(ctx, grant.presignedURL(), data, mimeType); err != nil {
		return "", apperrors.Upstream(constants.CollaboratorStorage, err)
	}

	c.logger.InfowCtx(ctx, "Report uploaded", "file_name", fileName, "bytes", len(data), "key", grant.Key)
	return grant.Key, nil
}

func (c *Client) put(ctx context.Context, url string, data []byte, mimeType string) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ObserveCollaborator(constants.CollaboratorStorage, status, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("file upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return &StatusError{Status: resp.StatusCode, Body: "file upload rejected"}
	}
	status = "ok"
	return nil
}
