package core

const (
	DefaultPort = 6969

	HintFileExt = ".hint"
	tempFileExt = ".tmp"

	// zstd level used for hint files
	hintCompressionLevel = 3

	// pairs buffered between the decode workers and the index aggregator
	pairBufferSize = 4096

	btreeDegree = 32
)
