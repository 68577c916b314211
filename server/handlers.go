package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/moonvale/werewolf-server/game"
	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/network"
	"github.com/moonvale/werewolf-server/persistence"
	"github.com/moonvale/werewolf-server/session"
)

var pongPayload, _ = json.Marshal(map[string]string{"type": "pong"})

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	sess.Touch()
	if s.mon != nil {
		s.mon.IncMessagesReceived()
	}

	switch packet.Type {
	case network.MsgPing:
		sess.Send(network.MsgPong, pongPayload)
	case network.MsgPong:
		// Keepalive answer; Touch above already reset the idle clock.

	case network.MsgRegisterReq:
		s.handleRegister(sess, packet)
	case network.MsgLoginReq:
		s.handleLogin(sess, packet)
	case network.MsgLogoutReq:
		s.handleLogout(sess)

	case network.MsgGetRoomsReq:
		s.handleGetRooms(sess)
	case network.MsgCreateRoomReq:
		s.handleCreateRoom(sess, packet)
	case network.MsgJoinRoomReq:
		s.handleJoinRoom(sess, packet)
	case network.MsgLeaveRoomReq:
		s.handleLeaveRoom(sess)
	case network.MsgGetRoomInfoReq:
		s.handleGetRoomInfo(sess, packet)

	case network.MsgStartGameReq:
		s.handleStartGame(sess, packet)
	case network.MsgRoleCardDoneReq:
		s.handleRoleCardDone(sess, packet)

	case network.MsgSeerCheckReq:
		s.handleNightAction(sess, packet, s.games.SeerCheck)
	case network.MsgGuardProtectReq:
		s.handleNightAction(sess, packet, s.games.GuardProtect)
	case network.MsgWolfKillReq:
		s.handleNightAction(sess, packet, s.games.WolfVote)
	case network.MsgVoteReq:
		s.handleNightAction(sess, packet, s.games.Vote)

	case network.MsgChatReq:
		s.handleChat(sess, packet)

	default:
		logger.Log.Infof("Unknown message type %d from session %s", packet.Type, sess.GetID())
		s.fail(sess, network.MsgError, "Unknown message type")
	}

	if s.mon != nil {
		s.mon.ObserveMessageLatency(time.Since(start))
	}
}

// sendJSON marshals and sends one response; marshal failures only get logged.
func (s *GameServer) sendJSON(sess *session.Session, msgType uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Failed to marshal response for msg %d: %v", msgType, err)
		return
	}
	sess.Send(msgType, data)
}

func (s *GameServer) fail(sess *session.Session, msgType uint16, message string) {
	s.sendJSON(sess, msgType, map[string]string{
		"status":  "fail",
		"message": message,
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *GameServer) handleRegister(sess *session.Session, packet *network.Packet) {
	var req credentialsRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.fail(sess, network.MsgRegisterRes, "Invalid request")
		return
	}

	if _, err := s.accounts.Register(req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, persistence.ErrUsernameTaken):
			s.fail(sess, network.MsgRegisterRes, "Username already exists")
		default:
			s.fail(sess, network.MsgRegisterRes, err.Error())
		}
		return
	}

	logger.Log.Infof("Registered new account %s", req.Username)
	s.sendJSON(sess, network.MsgRegisterRes, map[string]string{"status": "success"})
}

func (s *GameServer) handleLogin(sess *session.Session, packet *network.Packet) {
	var req credentialsRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.fail(sess, network.MsgLoginRes, "Invalid request")
		return
	}
	if sess.IsLoggedIn() {
		s.fail(sess, network.MsgLoginRes, "Already logged in")
		return
	}

	userID, err := s.accounts.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrInvalidCredentials), errors.Is(err, persistence.ErrRecordNotFound):
			s.fail(sess, network.MsgLoginRes, "Wrong username or password")
		default:
			s.fail(sess, network.MsgLoginRes, err.Error())
		}
		return
	}

	sess.Login(userID, req.Username)
	logger.Log.Infof("Session %s logged in as %s (user %d)", sess.GetID(), req.Username, userID)
	s.sendJSON(sess, network.MsgLoginRes, map[string]interface{}{
		"status":   "success",
		"user_id":  userID,
		"username": req.Username,
	})
}

func (s *GameServer) handleLogout(sess *session.Session) {
	// Logging out abandons any seat the same way a disconnect would.
	s.games.Disconnect(sess.GetID())
	sess.Logout()
	s.sendJSON(sess, network.MsgLogoutRes, map[string]string{"status": "success"})
}

func (s *GameServer) requireLogin(sess *session.Session, resType uint16) bool {
	if sess.IsLoggedIn() {
		return true
	}
	s.fail(sess, resType, "Please login first")
	return false
}

func (s *GameServer) handleGetRooms(sess *session.Session) {
	if !s.requireLogin(sess, network.MsgGetRoomsRes) {
		return
	}
	s.sendJSON(sess, network.MsgGetRoomsRes, map[string]interface{}{
		"status": "success",
		"rooms":  s.games.Rooms(),
	})
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	if !s.requireLogin(sess, network.MsgCreateRoomRes) {
		return
	}

	var req struct {
		RoomName string `json:"room_name"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.fail(sess, network.MsgCreateRoomRes, "Invalid request")
		return
	}

	userID, username := sess.Identity()
	view, err := s.games.CreateRoom(sess.GetID(), userID, username, req.RoomName)
	if err != nil {
		s.fail(sess, network.MsgCreateRoomRes, err.Error())
		return
	}

	logger.Log.Infof("%s created room %d (%s)", username, view.RoomID, view.RoomName)
	s.sendJSON(sess, network.MsgCreateRoomRes, map[string]interface{}{
		"status":    "success",
		"room_id":   view.RoomID,
		"room_name": view.RoomName,
	})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	if !s.requireLogin(sess, network.MsgJoinRoomRes) {
		return
	}

	var req struct {
		RoomID int `json:"room_id"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == 0 {
		s.fail(sess, network.MsgJoinRoomRes, "Invalid or missing room_id")
		return
	}

	userID, username := sess.Identity()
	view, err := s.games.JoinRoom(sess.GetID(), userID, username, req.RoomID)
	if err != nil {
		s.fail(sess, network.MsgJoinRoomRes, err.Error())
		return
	}

	players := make([]map[string]string, 0, len(view.Players))
	for _, name := range view.Players {
		players = append(players, map[string]string{"username": name})
	}

	logger.Log.Infof("%s joined room %d (%s)", username, view.RoomID, view.RoomName)
	s.sendJSON(sess, network.MsgJoinRoomRes, map[string]interface{}{
		"status":    "success",
		"is_host":   0,
		"room_id":   view.RoomID,
		"room_name": view.RoomName,
		"players":   players,
	})
}

func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	if !s.requireLogin(sess, network.MsgLeaveRoomRes) {
		return
	}

	result, err := s.games.LeaveRoom(sess.GetID())
	if err != nil {
		s.fail(sess, network.MsgLeaveRoomRes, err.Error())
		return
	}

	message := "Left room successfully"
	if result.MarkedDead {
		message = "You left the game and are considered dead"
	}
	s.sendJSON(sess, network.MsgLeaveRoomRes, map[string]string{
		"status":  "success",
		"message": message,
	})
}

func (s *GameServer) handleGetRoomInfo(sess *session.Session, packet *network.Packet) {
	var req struct {
		RoomID int `json:"room_id"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == 0 {
		s.fail(sess, network.MsgGetRoomInfoRes, "Invalid room ID")
		return
	}

	view, err := s.games.RoomInfo(req.RoomID)
	if err != nil {
		s.fail(sess, network.MsgGetRoomInfoRes, err.Error())
		return
	}

	s.sendJSON(sess, network.MsgGetRoomInfoRes, map[string]interface{}{
		"status":          "success",
		"room_id":         view.RoomID,
		"room_name":       view.RoomName,
		"current_players": view.CurrentPlayers,
		"max_players":     view.MaxPlayers,
		"room_status":     view.Status,
		"players":         view.Seats,
	})
}

func (s *GameServer) handleStartGame(sess *session.Session, packet *network.Packet) {
	var req struct {
		RoomID int `json:"room_id"`
	}
	// Start-game failures echo back on the request type; the desktop client
	// listens for them there.
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == 0 {
		s.fail(sess, network.MsgStartGameReq, "Invalid or missing room_id")
		return
	}

	if err := s.games.StartGame(sess.GetID(), req.RoomID); err != nil {
		s.fail(sess, network.MsgStartGameReq, err.Error())
		return
	}
	logger.Log.Infof("Game started in room %d", req.RoomID)
}

func (s *GameServer) handleRoleCardDone(sess *session.Session, packet *network.Packet) {
	var req struct {
		RoomID int `json:"room_id"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == 0 {
		s.fail(sess, network.MsgError, "Invalid or missing room_id")
		return
	}
	if err := s.games.RoleCardDone(sess.GetID(), req.RoomID); err != nil {
		s.fail(sess, network.MsgError, err.Error())
	}
}

// handleNightAction covers the four target-selection requests, which all
// share the same payload shape and error policy.
func (s *GameServer) handleNightAction(sess *session.Session, packet *network.Packet,
	action func(connID string, roomID int, target string) error) {

	var req struct {
		RoomID         int    `json:"room_id"`
		TargetUsername string `json:"target_username"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == 0 {
		s.fail(sess, network.MsgError, "Invalid or missing room_id")
		return
	}

	if err := action(sess.GetID(), req.RoomID, req.TargetUsername); err != nil {
		s.fail(sess, network.MsgError, err.Error())
	}
}

func (s *GameServer) handleChat(sess *session.Session, packet *network.Packet) {
	var req struct {
		RoomID  int    `json:"room_id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.RoomID == 0 {
		s.fail(sess, network.MsgError, "Invalid or missing room_id")
		return
	}

	if err := s.games.RelayChat(sess.GetID(), req.RoomID, req.Message); err != nil {
		if errors.Is(err, game.ErrMessageTooLong) || errors.Is(err, game.ErrEmptyMessage) ||
			errors.Is(err, game.ErrNotInRoom) || errors.Is(err, game.ErrDeadActor) ||
			errors.Is(err, game.ErrRoomNotFound) {
			s.fail(sess, network.MsgError, err.Error())
			return
		}
		logger.Log.Errorf("Chat relay failed for session %s: %v", sess.GetID(), err)
	}
}
