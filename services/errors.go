package services

import "errors"

var (
	ErrProvisioningFailed = errors.New("blob container provisioning failed")
	ErrUploadFailed       = errors.New("image upload failed")
	ErrNotFound           = errors.New("image not found")
	ErrStorageUnavailable = errors.New("blob storage unavailable")
	ErrDeleteFailed       = errors.New("image delete failed")
	ErrInvalidUpload      = errors.New("invalid upload")
)
