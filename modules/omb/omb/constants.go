package omb

const (
	Version = "v0.2.0"

	// ProtocolID is the marker prefix embedded in tag outputs.
	ProtocolID = "omb"
)
