// Package recording parses GoPro chaptered-video filenames into structured
// descriptors.
//
// The only supported convention is the chaptered scheme
// <GH|GX><chapter:2><group:4>.<ext> documented at
// https://community.gopro.com/t5/en/GoPro-Camera-File-Naming-Convention/ta-p/390220.
// Looping, single-file, and other camera families fail to parse and are
// treated by callers as non-candidates rather than errors.
package recording
