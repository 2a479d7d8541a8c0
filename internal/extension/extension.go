// internal/extension/extension.go
// Package extension exposes the bridge to the block editor as a set of
// blocks the host can describe and invoke.
package extension

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"nano-bridge/internal/utils"
)

var (
	// ErrUnknownOpcode is returned for an opcode the extension does not declare
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrInvalidArgument is returned when a host argument is not a number
	ErrInvalidArgument = errors.New("invalid argument")
)

// Extension is a block set the host can load
type Extension interface {
	Info() Info
	// Invoke runs one block. Errors are integration errors from the host
	// side; board failures never surface here.
	Invoke(ctx context.Context, opcode string, args map[string]interface{}) (interface{}, error)
}

// Board is the pin bridge the Arduino Nano blocks drive
type Board interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	DigitalWrite(pin, value int)
	SetPWM(pin, value int)
	SetServo(pin, angle int)
	DigitalRead(pin int) int
	AnalogRead(pin int) int
	ReadPulseIn(pin int) int
}

// ArduinoNano binds the Arduino Nano blocks to a board
type ArduinoNano struct {
	board  Board
	info   Info
	logger *zap.Logger
}

// NewArduinoNano creates the extension
func NewArduinoNano(board Board, logger *zap.Logger) *ArduinoNano {
	return &ArduinoNano{
		board:  board,
		info:   ArduinoNanoInfo(),
		logger: logger,
	}
}

// Info returns the block descriptor
func (e *ArduinoNano) Info() Info {
	return e.info
}

// Invoke runs the block named by opcode
func (e *ArduinoNano) Invoke(ctx context.Context, opcode string, args map[string]interface{}) (interface{}, error) {
	block, ok := e.info.Block(opcode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOpcode, opcode)
	}

	blockLogger := utils.NewBlockLogger(e.logger, e.info.ID, opcode, uuid.New().String())
	blockLogger.Start(zap.Any("args", args))

	values, err := coerceArgs(block, args)
	if err != nil {
		blockLogger.Error(err)
		return nil, err
	}

	var result interface{}
	switch opcode {
	case OpConnect:
		// failures reach the host as events
		_ = e.board.Connect(ctx)
	case OpDisconnect:
		e.board.Disconnect()
	case OpIsConnected:
		result = e.board.IsConnected()
	case OpDigitalWrite:
		e.board.DigitalWrite(values[ArgPin], values[ArgValue])
	case OpDigitalRead:
		result = e.board.DigitalRead(values[ArgPin])
	case OpSetPWM:
		e.board.SetPWM(values[ArgPin], values[ArgValue])
	case OpSetServo:
		e.board.SetServo(values[ArgPin], values[ArgAngle])
	case OpAnalogRead:
		result = e.board.AnalogRead(values[ArgPin])
	case OpReadPulseIn:
		result = e.board.ReadPulseIn(values[ArgPin])
	}

	blockLogger.Success(zap.Any("result", result))
	return result, nil
}

// coerceArgs turns host arguments into integers. Missing or null
// arguments take the block default; fractions are truncated. Values
// outside the int32 range are rejected.
func coerceArgs(block Block, args map[string]interface{}) (map[string]int, error) {
	values := make(map[string]int, len(block.Arguments))

	for name, arg := range block.Arguments {
		raw, ok := args[name]
		if !ok || raw == nil || raw == "" {
			values[name] = arg.DefaultValue
			continue
		}

		f, err := cast.ToFloat64E(raw)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidArgument, name, raw)
		}
		f = math.Trunc(f)
		if f < math.MinInt32 || f > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %s=%v out of range", ErrInvalidArgument, name, raw)
		}
		values[name] = int(f)
	}

	return values, nil
}
