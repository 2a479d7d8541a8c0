// internal/extension/info.go
package extension

// BlockType is how the editor renders a block
type BlockType string

const (
	BlockCommand  BlockType = "command"
	BlockReporter BlockType = "reporter"
	BlockBoolean  BlockType = "Boolean"
)

// ArgumentType is the editor slot type of an argument
type ArgumentType string

const ArgumentNumber ArgumentType = "number"

// Argument describes one block input
type Argument struct {
	Type         ArgumentType `json:"type"`
	DefaultValue int          `json:"defaultValue"`
}

// Block describes one block of an extension
type Block struct {
	Opcode    string              `json:"opcode"`
	BlockType BlockType           `json:"blockType"`
	Text      string              `json:"text"`
	Arguments map[string]Argument `json:"arguments,omitempty"`
}

// Info is the descriptor the host loads an extension from
type Info struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Color1 string  `json:"color1"`
	Color2 string  `json:"color2"`
	Color3 string  `json:"color3"`
	Blocks []Block `json:"blocks"`
}

// Block returns the block with opcode
func (i Info) Block(opcode string) (Block, bool) {
	for _, b := range i.Blocks {
		if b.Opcode == opcode {
			return b, true
		}
	}
	return Block{}, false
}

// Opcodes of the Arduino Nano extension
const (
	OpConnect      = "connect"
	OpDisconnect   = "disconnect"
	OpIsConnected  = "isConnected"
	OpDigitalWrite = "digitalWrite"
	OpDigitalRead  = "digitalRead"
	OpSetPWM       = "setPWM"
	OpSetServo     = "setServo"
	OpAnalogRead   = "analogRead"
	OpReadPulseIn  = "readPulseIn"
)

// Argument names
const (
	ArgPin   = "PIN"
	ArgValue = "VALUE"
	ArgAngle = "ANGLE"
)

// ArduinoNanoID is the extension id the editor knows the board by
const ArduinoNanoID = "arduinoNanoUSB"

func number(defaultValue int) Argument {
	return Argument{Type: ArgumentNumber, DefaultValue: defaultValue}
}

// ArduinoNanoInfo returns the descriptor of the Arduino Nano extension
func ArduinoNanoInfo() Info {
	return Info{
		ID:     ArduinoNanoID,
		Name:   "Arduino Nano USB",
		Color1: "#1381f9",
		Color2: "#000000",
		Color3: "#0000EE",
		Blocks: []Block{
			{Opcode: OpConnect, BlockType: BlockCommand, Text: "connect arduino"},
			{Opcode: OpDisconnect, BlockType: BlockCommand, Text: "disconnect arduino"},
			{Opcode: OpIsConnected, BlockType: BlockBoolean, Text: "arduino connected?"},
			{
				Opcode:    OpDigitalWrite,
				BlockType: BlockCommand,
				Text:      "set digital pin [PIN] to [VALUE]",
				Arguments: map[string]Argument{ArgPin: number(9), ArgValue: number(1)},
			},
			{
				Opcode:    OpDigitalRead,
				BlockType: BlockReporter,
				Text:      "digital read pin [PIN]",
				Arguments: map[string]Argument{ArgPin: number(9)},
			},
			{
				Opcode:    OpSetPWM,
				BlockType: BlockCommand,
				Text:      "set PWM pin [PIN] to value [VALUE]",
				Arguments: map[string]Argument{ArgPin: number(9), ArgValue: number(255)},
			},
			{
				Opcode:    OpSetServo,
				BlockType: BlockCommand,
				Text:      "set servo [PIN] to angle [ANGLE]",
				Arguments: map[string]Argument{ArgPin: number(9), ArgAngle: number(90)},
			},
			{
				Opcode:    OpAnalogRead,
				BlockType: BlockReporter,
				Text:      "analog read [PIN]",
				Arguments: map[string]Argument{ArgPin: number(0)},
			},
			{
				Opcode:    OpReadPulseIn,
				BlockType: BlockReporter,
				Text:      "read pulse in pin [PIN]",
				Arguments: map[string]Argument{ArgPin: number(8)},
			},
		},
	}
}
