package keyboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	CallbackDataSeparator  = ":"
	CallbackDataLimitBytes = 64
)

func EncodeCallback(unique, data string) (string, error) {
	if unique == "" {
		return "", errors.New("callback unique is empty")
	}

	payload := unique
	if data != "" {
		payload = unique + CallbackDataSeparator + data
	}

	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

func DecodeCallback(callbackData string) (unique, data string, err error) {
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	idx := strings.Index(callbackData, CallbackDataSeparator)
	if idx == -1 {
		return callbackData, "", nil
	}

	return callbackData[:idx], callbackData[idx+len(CallbackDataSeparator):], nil
}

// DecodeID decodes callback data whose payload is a single integer id.
func DecodeID(callbackData string) (string, int64, error) {
	unique, data, err := DecodeCallback(callbackData)
	if err != nil {
		return "", 0, err
	}

	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return unique, 0, fmt.Errorf("callback %q: invalid id %q", unique, data)
	}

	return unique, id, nil
}

// IDPayload formats an integer id as callback payload.
func IDPayload(id int64) string {
	return strconv.FormatInt(id, 10)
}
