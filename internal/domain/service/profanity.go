package service

import goaway "github.com/TwiN/go-away"

type ProfanityClassifier interface {
	IsProfane(text string) bool
}

type profanityFilter struct {
	detector *goaway.ProfanityDetector
}

func NewProfanityFilter() ProfanityClassifier {
	return &profanityFilter{detector: goaway.NewProfanityDetector()}
}

func (f *profanityFilter) IsProfane(text string) bool {
	return f.detector.IsProfane(text)
}
