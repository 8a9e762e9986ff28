package logging

import "log/slog"

// Common field names for consistent logging across commands.
const (
	FieldGID       = "gid"
	FieldFile      = "file"
	FieldDataset   = "dataset"
	FieldTopology  = "topology"
	FieldKind      = "kind"
	FieldShape     = "shape"
	FieldChannels  = "channels"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldComponent = "component"
)

// GID returns a slog attribute for a stored entity's GID.
func GID(gid string) slog.Attr {
	return slog.String(FieldGID, gid)
}

// File returns a slog attribute for a file path.
func File(path string) slog.Attr {
	return slog.String(FieldFile, path)
}

// Dataset returns a slog attribute for a dataset location.
func Dataset(name string) slog.Attr {
	return slog.String(FieldDataset, name)
}

// Topology returns a slog attribute for a topology GID.
func Topology(gid string) slog.Attr {
	return slog.String(FieldTopology, gid)
}

// Kind returns a slog attribute for a time series kind.
func Kind(kind string) slog.Attr {
	return slog.String(FieldKind, kind)
}

// Shape returns a slog attribute for an array shape.
func Shape(shape []int) slog.Attr {
	return slog.Any(FieldShape, shape)
}

// Channels returns a slog attribute for a channel count.
func Channels(n int) slog.Attr {
	return slog.Int(FieldChannels, n)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Component returns a slog attribute naming the emitting component.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}
