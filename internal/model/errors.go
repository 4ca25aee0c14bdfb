package model

import "errors"

var (
	// ErrInvalidImage means the input could not be decoded or is empty.
	ErrInvalidImage = errors.New("invalid image")
	// ErrRecognitionIncomplete means a row yielded no usable digits.
	ErrRecognitionIncomplete = errors.New("recognition incomplete")
	// ErrInsufficientHistory means too few points to judge a trend.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrInvalidCandidate means the candidate reading has a non-finite value.
	ErrInvalidCandidate = errors.New("invalid candidate")
)
