package sink

// vizEvent is the JSON wire shape sent to connected visualization
// clients. It abstracts the {log(path, image|depth_image|encoded_image),
// set_time_cursor, flush_blocking} protocol spec.md describes into a
// single tagged message type instead of binding to any particular
// visualization tool's native wire format.
type vizEvent struct {
	Kind string `json:"kind"` // "image", "depth_image", "encoded_image", "time_cursor"
	Path string `json:"path,omitempty"`

	// image
	RGB8   []byte `json:"rgb8,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`

	// depth_image
	DepthZ16      []byte  `json:"depth_z16,omitempty"`
	MetersPerUnit float64 `json:"meters_per_unit,omitempty"`

	// encoded_image
	Encoded  []byte `json:"encoded,omitempty"`
	MimeHint string `json:"mime_hint,omitempty"`

	// time_cursor
	TimeSeconds float64 `json:"time_seconds,omitempty"`
}
