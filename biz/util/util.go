package util

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/sony/sonyflake"
)

var (
	sonyFlake *sonyflake.Sonyflake
	flakeErr  error
	once      sync.Once
)

// initSonyFlake uses the default private-IP machine ID when the host has
// one and otherwise falls back to a random machine ID, so ID generation
// still works on hosts without a private IPv4.
func initSonyFlake() {
	once.Do(func() {
		sonyFlake, flakeErr = sonyflake.New(sonyflake.Settings{})
		if flakeErr != nil {
			sonyFlake, flakeErr = sonyflake.New(sonyflake.Settings{MachineID: randomMachineID})
		}
	})
}

func randomMachineID() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// NextID generates a unique ID for ledger records.
func NextID() (string, error) {
	initSonyFlake()
	if flakeErr != nil {
		return "", flakeErr
	}
	id, err := sonyFlake.NextID()
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 10), nil
}
