package app

import "github.com/small-frappuccino/memebot/pkg/util"

// Version is the memebot release this binary was built from.
const Version = "v0.1.0"

// AppVersion is the version stamped by the embedding binary, if any.
func AppVersion() string {
	return util.AppVersion
}

// SetAppVersion sets the version stamped by the embedding binary.
func SetAppVersion(v string) {
	util.SetAppVersion(v)
}
