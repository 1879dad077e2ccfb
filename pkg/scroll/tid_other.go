//go:build !linux

package scroll

func threadID() int64 { return 0 }
