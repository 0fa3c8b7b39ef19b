package wire

// ObjectType tags the payload kind carried by an object record. Concrete
// sensor payload layouts (gyro, ultrasonic, touch, colour, light, ...) are
// defined by callers; the codec only ever moves tagged byte ranges.
type ObjectType uint16

// Well-known object type tags. 0x8000 and above are reserved for
// user-defined payloads.
const (
	ObjectTypeRaw               ObjectType = 0x0000
	ObjectTypeTouch             ObjectType = 0x0001
	ObjectTypeGyro              ObjectType = 0x0002
	ObjectTypeColour            ObjectType = 0x0003
	ObjectTypeLight             ObjectType = 0x0004
	ObjectTypeUltrasonic        ObjectType = 0x0005
	ObjectTypeTachoMotor        ObjectType = 0x0400
	ObjectTypeColourLightCombo  ObjectType = 0x0401
	ObjectTypeUserDefinedMin    ObjectType = 0x8000
)
