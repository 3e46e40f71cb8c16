package broker

import "errors"

var (
	// ErrInvalidTopicName is returned when an empty topic name is supplied.
	ErrInvalidTopicName = errors.New("invalid topic name")

	// ErrTopicAlreadyExists is returned when trying to create a topic that already exists.
	ErrTopicAlreadyExists = errors.New("topic already exists")

	// ErrTopicNotFound is returned when trying to access a topic that doesn't exist.
	ErrTopicNotFound = errors.New("topic not found")
)
