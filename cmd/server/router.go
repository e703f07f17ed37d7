// File: router.go
// Description:
//     Translates each ordered-channel opcode into a call against the
//     world/agency/vessel managers, and replies on the same channel
//     (spec.md §4.6, §7). This is the one place that is allowed to
//     touch every manager at once -- internal/network only knows
//     about bytes and sessions.
package main

import (
	"encoding/json"

	"github.com/everforgeworks/galaxyserver/internal/apierr"
	"github.com/everforgeworks/galaxyserver/internal/network"
	"github.com/everforgeworks/galaxyserver/internal/obslog"
	"github.com/everforgeworks/galaxyserver/internal/vessel"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// router holds every manager an ordered-channel request might touch.
type router struct {
	srv *server
}

func (rt *router) Handle(s *network.Session, op network.Opcode, payload []byte) {
	switch op {
	case network.OpHandshake:
		rt.handleHandshake(s, payload)
	case network.OpCatalog:
		rt.handleCatalog(s)
	case network.OpAgencyList:
		rt.handleAgencyList(s)
	case network.OpAgencyCreate:
		rt.handleAgencyCreate(s, payload)
	case network.OpBuildingConstruct:
		rt.handleBuildingConstruct(s, payload)
	case network.OpVesselConstruct:
		rt.handleVesselConstruct(s, payload)
	case network.OpVesselControl:
		rt.handleVesselControl(s, payload)
	case network.OpControlTransfer:
		rt.handleControlTransfer(s, payload)
	case network.OpResourceSell:
		rt.handleResourceSell(s, payload)
	case network.OpBuildingUpgrade:
		rt.handleBuildingUpgrade(s, payload)
	case network.OpAstronautAction:
		rt.handleAstronautAction(s, payload)
	default:
		obslog.Log.Warn().Str("session", s.ID.String()).Int("op", int(op)).Msg("unknown opcode, dropping session")
		s.Disconnect()
	}
}

func reply(s *network.Session, op network.Opcode, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		obslog.Log.Error().Err(err).Msg("router: marshal reply failed")
		return
	}
	s.SendOrdered(op, body)
}

// rejectBody is the wire shape of an OpReject reply (spec.md §7:
// "reject with structured reason code, no state change").
type rejectBody struct {
	Reason  apierr.Reason `json:"reason"`
	Message string        `json:"message"`
}

func rejectErr(s *network.Session, err error) {
	if r, ok := err.(*apierr.Rejection); ok {
		reply(s, network.OpReject, rejectBody{Reason: r.Reason, Message: r.Message})
		return
	}
	reply(s, network.OpReject, rejectBody{Message: err.Error()})
}

// --- OpHandshake ---

type handshakeRequest struct {
	PlayerID uint64 `json:"player_id"`
}

type handshakeResponse struct {
	PlayerID uint64 `json:"player_id"`
	AgencyID uint64 `json:"agency_id"`
	Money    int    `json:"money"`
	Galaxy   int    `json:"galaxy"`
	System   int    `json:"system"`
}

func (rt *router) handleHandshake(s *network.Session, payload []byte) {
	var req handshakeRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.PlayerID == 0 {
		obslog.Log.Warn().Err(err).Msg("malformed handshake, dropping session")
		s.Disconnect()
		return
	}
	p := rt.srv.agencyMgr.RegisterPlayer(req.PlayerID)
	s.SetPlayerContext(p.ID, p.AgencyID, p.Galaxy, p.System)
	s.SetControlledVessel(p.ControlledVesselID)
	rt.srv.attachAudience(s)
	reply(s, network.OpHandshake, handshakeResponse{
		PlayerID: p.ID, AgencyID: p.AgencyID, Money: p.Money, Galaxy: p.Galaxy, System: p.System,
	})
}

// --- OpCatalog ---

func (rt *router) handleCatalog(s *network.Session) {
	reply(s, network.OpCatalog, rt.srv.catalog)
}

// --- OpAgencyList / OpAgencyCreate ---

func (rt *router) handleAgencyList(s *network.Session) {
	reply(s, network.OpAgencyList, rt.srv.agencyMgr.PublicAgencies())
}

type agencyCreateRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

func (rt *router) handleAgencyCreate(s *network.Session, payload []byte) {
	var req agencyCreateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "malformed agency_create request"))
		return
	}
	playerID, _, galaxy, system := s.Context()
	a := rt.srv.agencyMgr.CreateAgency(req.Name, req.IsPublic)
	rt.srv.agencyMgr.AddMember(a.ID, playerID)
	if p := rt.srv.agencyMgr.Player(playerID); p != nil {
		p.AgencyID = a.ID
	}
	s.SetPlayerContext(playerID, a.ID, galaxy, system)
	reply(s, network.OpAgencyCreate, a)
}

// --- OpBuildingConstruct / OpBuildingUpgrade ---

type buildingConstructRequest struct {
	PlanetID     uint64  `json:"planet_id"`
	BuildingType string  `json:"building_type"`
	LongitudeDeg float64 `json:"longitude_deg"`
}

func (rt *router) handleBuildingConstruct(s *network.Session, payload []byte) {
	var req buildingConstructRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "malformed building_construct request"))
		return
	}
	playerID, agencyID, _, _ := s.Context()
	b, err := rt.srv.agencyMgr.ConstructBuilding(agencyID, req.PlanetID, req.BuildingType, req.LongitudeDeg,
		func(cost int) bool { return rt.srv.agencyMgr.DeductPlayerMoney(playerID, cost) })
	if err != nil {
		rejectErr(s, err)
		return
	}
	reply(s, network.OpBuildingConstruct, b)
}

type buildingUpgradeRequest struct {
	PlanetID     uint64 `json:"planet_id"`
	BuildingType string `json:"building_type"`
}

func (rt *router) handleBuildingUpgrade(s *network.Session, payload []byte) {
	var req buildingUpgradeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "malformed building_upgrade request"))
		return
	}
	playerID, agencyID, _, _ := s.Context()
	level, err := rt.srv.agencyMgr.UpgradeBuilding(agencyID, req.PlanetID, req.BuildingType,
		func(cost int) bool { return rt.srv.agencyMgr.DeductPlayerMoney(playerID, cost) })
	if err != nil {
		rejectErr(s, err)
		return
	}
	reply(s, network.OpBuildingUpgrade, struct {
		Level int `json:"level"`
	}{level})
}

// --- OpVesselConstruct ---

type vesselConstructRequest struct {
	Name              string                 `json:"name"`
	BaseBodyID        uint64                 `json:"base_body_id"`
	LaunchpadAngleDeg float64                `json:"launchpad_angle_deg"`
	Placements        []vessel.Placement     `json:"placements"`
	Connections       []vessel.Connection    `json:"connections"`
}

func (rt *router) handleVesselConstruct(s *network.Session, payload []byte) {
	var req vesselConstructRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "malformed vessel_construct request"))
		return
	}
	playerID, agencyID, galaxy, system := s.Context()
	chunk := rt.srv.world.ChunkByCoord(galaxy, system, world.ChunkSystem)
	basePos, baseVel := world.Vec2{}, world.Vec2{}
	if obj, ok := chunk.Lookup(req.BaseBodyID); ok {
		basePos, baseVel = obj.Pos(), obj.Vel()
	}
	v, err := vessel.Construct(rt.srv.catalog, rt.srv.agencyMgr, rt.srv.world.IDs, vessel.ConstructionRequest{
		Placements: req.Placements, Connections: req.Connections, BaseBodyID: req.BaseBodyID,
		LaunchpadAngleDeg: req.LaunchpadAngleDeg, Name: req.Name,
		RequesterPlayerID: playerID, AgencyID: agencyID,
	}, basePos, baseVel)
	if err != nil {
		rejectErr(s, err)
		return
	}
	v.WithCatalog(rt.srv.catalog)
	v.Agency = rt.srv.agencyMgr
	v.SetChunkKey(galaxy, system)
	chunk.Add(v)
	rt.srv.world.RegisterObject(v.ID, galaxy, system, world.ChunkSystem)
	rt.srv.agencyMgr.RegisterVessel(v)
	reply(s, network.OpVesselConstruct, struct {
		VesselID uint64 `json:"vessel_id"`
	}{v.ID})
}

// --- OpVesselControl ---

type vesselControlRequest struct {
	VesselID uint64                     `json:"vessel_id"`
	Kind     network.VesselControlKind  `json:"kind"`
	Value    float64                    `json:"value"` // telescope angle, etc.
	SystemID int                        `json:"system_id"`
	Active   bool                       `json:"active"`
}

func (rt *router) handleVesselControl(s *network.Session, payload []byte) {
	var req vesselControlRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		obslog.Log.Warn().Err(err).Msg("malformed vessel_control, dropping session")
		s.Disconnect()
		return
	}
	if req.VesselID != s.ControlledVessel() {
		rejectErr(s, apierr.Reject(apierr.ReasonNotController, "not in control of vessel %d", req.VesselID))
		return
	}
	c, ok := rt.srv.world.ChunkFor(req.VesselID)
	if !ok {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "vessel %d not loaded", req.VesselID))
		return
	}
	obj, ok := c.Lookup(req.VesselID)
	if !ok {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "vessel %d not found", req.VesselID))
		return
	}
	v, ok := obj.(*vessel.Vessel)
	if !ok {
		return
	}
	switch req.Kind {
	case network.CtrlEngageForward:
		v.Control.Forward = true
	case network.CtrlDisengageForward:
		v.Control.Forward = false
	case network.CtrlEngageReverse:
		v.Control.Reverse = true
	case network.CtrlDisengageReverse:
		v.Control.Reverse = false
	case network.CtrlEngageCCW:
		v.Control.CCW = true
	case network.CtrlDisengageCCW:
		v.Control.CCW = false
	case network.CtrlEngageCW:
		v.Control.CW = true
	case network.CtrlDisengageCW:
		v.Control.CW = false
	case network.CtrlRequestControl:
		// no-op here: control assignment is OpControlTransfer's job.
	case network.CtrlDeployStage:
		if v.CurrentStage > 0 {
			v.CurrentStage--
			v.RecomputeStats(rt.srv.catalog)
		}
	case network.CtrlSetTelescopeAngle:
		v.TelescopeTargetAngleDeg = req.Value
	case network.CtrlSetSystemActive:
		if sys := v.System(vessel.SystemKind(req.SystemID)); sys != nil {
			sys.Active = req.Active
		}
	}
}

// --- OpControlTransfer ---

type controlTransferRequest struct {
	VesselID uint64 `json:"vessel_id"`
}

func (rt *router) handleControlTransfer(s *network.Session, payload []byte) {
	var req controlTransferRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "malformed control_transfer request"))
		return
	}
	c, ok := rt.srv.world.ChunkFor(req.VesselID)
	if !ok {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "vessel %d not loaded", req.VesselID))
		return
	}
	obj, ok := c.Lookup(req.VesselID)
	if !ok {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "vessel %d not found", req.VesselID))
		return
	}
	playerID, agencyID, _, _ := s.Context()
	v, ok := obj.(*vessel.Vessel)
	if !ok || v.AgencyID != agencyID {
		rejectErr(s, apierr.Reject(apierr.ReasonNotMember, "vessel %d not owned by your agency", req.VesselID))
		return
	}
	if v.ControlledBy != 0 && v.ControlledBy != playerID {
		rejectErr(s, apierr.Reject(apierr.ReasonAlreadyControlled, "vessel %d already controlled", req.VesselID))
		return
	}
	v.ControlledBy = playerID
	s.SetControlledVessel(v.ID)
	if p := rt.srv.agencyMgr.Player(playerID); p != nil {
		p.ControlledVesselID = v.ID
	}
	reply(s, network.OpControlTransfer, struct {
		VesselID uint64 `json:"vessel_id"`
	}{v.ID})
}

// --- OpResourceSell ---

type resourceSellRequest struct {
	FromBodyID uint64 `json:"from_body_id"`
	ResourceID string `json:"resource_id"`
	Count      int    `json:"count"`
}

func (rt *router) handleResourceSell(s *network.Session, payload []byte) {
	var req resourceSellRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "malformed resource_sell request"))
		return
	}
	playerID, agencyID, _, _ := s.Context()
	if err := rt.srv.agencyMgr.SellResource(playerID, agencyID, req.FromBodyID, req.ResourceID, req.Count); err != nil {
		rejectErr(s, err)
		return
	}
	reply(s, network.OpResourceSell, struct {
		Money int `json:"money"`
	}{rt.srv.agencyMgr.PlayerMoney(playerID)})
}

// --- OpAstronautAction ---

type astronautActionRequest struct {
	Action   string `json:"action"` // "create", "to_vessel", "to_planet"
	PlanetID uint64 `json:"planet_id"`
	Name     string `json:"name"`
	AstroID  uint32 `json:"astro_id"`
	VesselID uint64 `json:"vessel_id"`
}

func (rt *router) handleAstronautAction(s *network.Session, payload []byte) {
	var req astronautActionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "malformed astronaut_action request"))
		return
	}
	_, agencyID, _, _ := s.Context()
	switch req.Action {
	case "create":
		a := rt.srv.agencyMgr.CreateAstronaut(agencyID, req.PlanetID, req.Name)
		reply(s, network.OpAstronautAction, a)
	case "to_vessel":
		v := rt.srv.lookupVessel(req.VesselID)
		if v == nil {
			rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "vessel %d not found", req.VesselID))
			return
		}
		if err := rt.srv.agencyMgr.MoveAstronautToVessel(agencyID, req.AstroID, v); err != nil {
			rejectErr(s, err)
			return
		}
		reply(s, network.OpAstronautAction, struct{ OK bool }{true})
	case "to_planet":
		v := rt.srv.lookupVessel(req.VesselID)
		if v == nil {
			rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "vessel %d not found", req.VesselID))
			return
		}
		if err := rt.srv.agencyMgr.MoveAstronautToPlanet(agencyID, req.AstroID, v); err != nil {
			rejectErr(s, err)
			return
		}
		reply(s, network.OpAstronautAction, struct{ OK bool }{true})
	default:
		rejectErr(s, apierr.Reject(apierr.ReasonNotFound, "unknown astronaut action %q", req.Action))
	}
}
