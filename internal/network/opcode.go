package network

// Opcode identifies the payload that follows a frame header, on either
// channel (spec.md §4.6). The two opcode spaces are distinct: ordered
// opcodes are client<->server requests/replies, datagram opcodes are
// server->client streams and one client->server hello.
type Opcode uint16

// Ordered-channel opcodes: framed [opcode:2 LE][payload...] over the
// gorilla/websocket connection.
const (
	OpHandshake Opcode = iota + 1
	OpCatalog
	OpChat
	OpAgencyList
	OpAgencyCreate
	OpBuildingConstruct
	OpVesselConstruct
	OpVesselControl
	OpControlTransfer
	OpResourceSell
	OpBuildingUpgrade
	OpAstronautAction
	OpKeepalive
	OpReject
)

// DatagramOp identifies a single-byte opcode on the unreliable UDP
// channel (spec.md §4.6, §6).
type DatagramOp byte

const (
	DgObjectStream DatagramOp = iota + 1
	DgVesselStream
	DgNotification
	DgTelescopeSight
	DgMagnetometer
	DgRegionAudio
	DgCargoState
	DgUpgradeTree
	DgVesselDestroyed
	// DgHello is the one client->server datagram: a bare session token
	// sent once so the server can learn and pin the client's source
	// port (spec.md §4.6 "source UDP port is discovered on the first
	// datagram and pinned per session").
	DgHello
)

// VesselControlKind enumerates the control message's kind field
// (spec.md §4.6 "Vessel control message").
type VesselControlKind byte

const (
	CtrlEngageForward VesselControlKind = iota + 1
	CtrlDisengageForward
	CtrlEngageReverse
	CtrlDisengageReverse
	CtrlEngageCCW
	CtrlDisengageCCW
	CtrlEngageCW
	CtrlDisengageCW
	CtrlRequestControl
	CtrlDeployStage
	CtrlSetTelescopeAngle
	CtrlSetSystemActive
)
