package network

// Packet types on the wire. The numeric values are a stable contract
// shared with the desktop client and must not be renumbered.
const (
	// Authentication (100-199)
	MsgLoginReq    uint16 = 101
	MsgLoginRes    uint16 = 102
	MsgRegisterReq uint16 = 103
	MsgRegisterRes uint16 = 104
	MsgLogoutReq   uint16 = 105
	MsgLogoutRes   uint16 = 106

	// Room management (200-299)
	MsgGetRoomsReq      uint16 = 201
	MsgGetRoomsRes      uint16 = 202
	MsgCreateRoomReq    uint16 = 203
	MsgCreateRoomRes    uint16 = 204
	MsgJoinRoomReq      uint16 = 205
	MsgJoinRoomRes      uint16 = 206
	MsgRoomStatusUpdate uint16 = 207
	MsgLeaveRoomReq     uint16 = 208
	MsgLeaveRoomRes     uint16 = 209
	MsgGetRoomInfoReq   uint16 = 210
	MsgGetRoomInfoRes   uint16 = 211

	// Game flow (300-399)
	MsgStartGameReq        uint16 = 301
	MsgGameStartResAndRole uint16 = 302
	MsgPhaseNight          uint16 = 303
	MsgPhaseDay            uint16 = 304
	MsgGameOver            uint16 = 305
	MsgRoleCardDoneReq     uint16 = 310
	MsgPhaseGuardStart     uint16 = 311
	MsgPhaseWolfStart      uint16 = 312

	// Game actions (400-499)
	MsgChatReq         uint16 = 401
	MsgChatBroadcast   uint16 = 402
	MsgWolfKillReq     uint16 = 403
	MsgWolfKillRes     uint16 = 404
	MsgSeerCheckReq    uint16 = 405
	MsgSeerResult      uint16 = 406
	MsgGuardProtectReq uint16 = 407
	MsgGuardProtectRes uint16 = 408
	MsgVoteReq         uint16 = 409
	MsgVoteStatus      uint16 = 410
	MsgVoteResult      uint16 = 411

	// System (500+)
	MsgError uint16 = 500
	MsgPing  uint16 = 501
	MsgPong  uint16 = 502
)
