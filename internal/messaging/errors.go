package messaging

import (
	"errors"
	"fmt"
)

var errNotConnected = errors.New("no RabbitMQ connection")

func wrapSubscribeErr(step, queue string, err error) error {
	return fmt.Errorf("%s error (queue %s): %v", step, queue, err)
}
