package wot

import "errors"

var (
	ErrSelfLinkingForbidden  = errors.New("wot: self-linking forbidden")
	ErrUnknownSource         = errors.New("wot: unknown source node")
	ErrUnknownTarget         = errors.New("wot: unknown target node")
	ErrAllCertificationsUsed = errors.New("wot: all certifications used")
	ErrAlreadyCertified      = errors.New("wot: already certified")
	ErrUnknownCert           = errors.New("wot: unknown certification")
)
