package ports

// Codec turns a packed RGBA frame sequence into a looping GIF.
//
// data holds frameCount frames of width*height*4 bytes each, in display order.
// quality ranges 1..30 where 1 is best. fps ranges 1..60.
type Codec interface {
	Encode(data []byte, width, height, frameCount, fps, quality int) ([]byte, error)
}

// CodecLoader is implemented by codecs that need a one-time load step, such
// as locating an external binary, before they can encode.
type CodecLoader interface {
	Load() error
}

// CodecFunc adapts a function to the Codec interface.
type CodecFunc func(data []byte, width, height, frameCount, fps, quality int) ([]byte, error)

// Encode implements Codec.
func (f CodecFunc) Encode(data []byte, width, height, frameCount, fps, quality int) ([]byte, error) {
	return f(data, width, height, frameCount, fps, quality)
}
