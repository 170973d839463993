package api

import "context"

// disabled is the Service used when network access is turned off. It
// consults nothing and performs no I/O.
type disabled struct{}

func (disabled) UploadRecording(context.Context, string) (*RecordingUploadResult, error) {
	return nil, ErrNetworkDisabled
}

func (disabled) ListUserStreams(context.Context, string) ([]StreamHandle, error) {
	return nil, ErrNetworkDisabled
}

func (disabled) CreateStream(context.Context, StreamChangeset) (*StreamHandle, error) {
	return nil, ErrNetworkDisabled
}

func (disabled) UpdateStream(context.Context, uint64, StreamChangeset) (*StreamHandle, error) {
	return nil, ErrNetworkDisabled
}
