package webserver

// EncoderConfig is the body of PUT /api/v1.0/encoder.
type EncoderConfig struct {
	SampleRate *int   `json:"samplerate"`
	Channels   int    `json:"channels,omitempty"`
	Bitrate    int    `json:"bitrate,omitempty"`
	DTX        bool   `json:"dtx,omitempty"`
	ModelPath  string `json:"model_path,omitempty"`
}

// DecoderConfig is the body of PUT /api/v1.0/decoder.
type DecoderConfig struct {
	SampleRate *int   `json:"samplerate"`
	Channels   int    `json:"channels,omitempty"`
	ModelPath  string `json:"model_path,omitempty"`
}

// Bitrate is the body of PUT /api/v1.0/encoder/bitrate.
type Bitrate struct {
	Bitrate *int `json:"bitrate"`
}

// DecoderStats is returned by GET /api/v1.0/decoder/stats.
type DecoderStats struct {
	Delivered  int `json:"delivered"`
	Lost       int `json:"lost"`
	Duplicated int `json:"duplicated"`
	Frames     int `json:"frames"`
}
