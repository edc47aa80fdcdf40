package session

import (
	"log/slog"

	"github.com/junsooki/AirXR/internal/input"
	"github.com/junsooki/AirXR/internal/mapping"
	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/remote"
	"github.com/junsooki/AirXR/internal/xr"
)

var buttonActions = []struct {
	action xr.Action
	id     input.ButtonID
}{
	{xr.ActionMenuClick, input.ButtonApplicationMenu},
	{xr.ActionTriggerTouch, input.ButtonTriggerTouch},
	{xr.ActionTriggerClick, input.ButtonTriggerClick},
	{xr.ActionSqueezeClick, input.ButtonGripClick},
	{xr.ActionThumbstickTouch, input.ButtonJoystickTouch},
	{xr.ActionThumbstickClick, input.ButtonJoystickClick},
	{xr.ActionButtonAXTouch, input.ButtonATouch},
	{xr.ActionButtonAXClick, input.ButtonAClick},
	{xr.ActionButtonBYTouch, input.ButtonBTouch},
	{xr.ActionButtonBYClick, input.ButtonBClick},
}

var axisActions = []struct {
	action xr.Action
	id     input.AxisID
}{
	{xr.ActionTriggerValue, input.AxisTrigger},
	{xr.ActionSqueezeValue, input.AxisGrip},
	{xr.ActionThumbstickX, input.AxisJoystickX},
	{xr.ActionThumbstickY, input.AxisJoystickY},
	{xr.ActionThumbProximity, input.AxisProximity},
	{xr.ActionThumbRestForce, input.AxisGripForce},
}

// OnTrackingStateRequest implements remote.Callbacks. It runs on the
// service's polling goroutine and owns the controller input state.
func (s *Session) OnTrackingStateRequest(ts *remote.TrackingState) {
	r := s.recv()
	if r == nil || ts == nil || !s.machine.IsConnected() {
		return
	}

	s.trackMu.Lock()
	defer s.trackMu.Unlock()

	t := s.rt.PredictedDisplayTime() + s.cfg.PredictionOffsetNS

	*ts = remote.TrackingState{PoseTimeOffset: float32(s.cfg.PoseTimeOffsetS)}

	s.addControllers(r)
	if s.controllersAdded {
		s.rt.PollActions()
		s.handleBuf = s.handleBuf[:0]
		s.poseBuf = s.poseBuf[:0]

		for side := input.Side(0); side < input.NumControllers; side++ {
			c := s.player.Controller(side)
			c.Pose.Valid = false

			loc, ok := s.rt.LocateController(int(side), t)
			if !ok {
				continue
			}
			p := pose.FromRuntime(loc)
			if s.cfg.EnableRemoteControllerOffset {
				p = s.applyOffset(p, side)
			}
			c.Pose = p

			s.pollAxes(c)
			s.pollButtons(c)
			s.fireEvents(r, c, uint64(t))

			s.handleBuf = append(s.handleBuf, s.handles[side])
			s.poseBuf = append(s.poseBuf, pose.ToProtocol(p))
		}

		if len(s.handleBuf) > 0 {
			if err := r.SendPoses(s.handleBuf, s.poseBuf); err != nil {
				slog.Error("session: send poses", "error", err)
			}
		}
	}

	ts.HMD.Flags = remote.HMDHasIPD | remote.HMDHasPoseID
	ts.HMD.IPD = s.updateIPD()
	ts.HMD.PoseID = s.poseID.Add(1) - 1
	if loc, ok := s.rt.LocateHead(t); ok {
		ts.HMD.Pose = pose.ToProtocol(pose.FromRuntime(loc))
	}
}

// applyOffset corrects a runtime aim pose to the remote controller model.
// The offset is authored for the right hand and mirrored for the left.
func (s *Session) applyOffset(p pose.Pose, side input.Side) pose.Pose {
	off := s.offset
	if side == input.Left {
		off.Position.X = -off.Position.X
	}
	return p.Compose(off)
}

// pollAxes samples the float actions. With grip force folded in, the grip
// axis carries the last raw squeeze sample plus the current force, so a
// steady hand produces a steady value.
func (s *Session) pollAxes(c *input.Controller) {
	hand := int(c.Side)
	fold := s.cfg.CombineGripForce
	for _, m := range axisActions {
		st := s.rt.FloatAction(hand, m.action)
		if !st.Active {
			continue
		}
		if fold && m.id == input.AxisGrip {
			s.rawGrip[c.Side] = st.Current
			continue
		}
		c.Axis(m.id).SetValue(st.Current)
	}
	if fold {
		c.Axis(input.AxisGrip).SetValue(s.rawGrip[c.Side] + c.Axis(input.AxisGripForce).Value())
	}
}

func (s *Session) pollButtons(c *input.Controller) {
	hand := int(c.Side)
	for _, m := range buttonActions {
		st := s.rt.BoolAction(hand, m.action)
		if !st.Active {
			continue
		}
		c.Button(m.id).SetState(st.Current)
	}
	if s.cfg.SimulateGripTouch {
		c.Button(input.ButtonGripTouch).SetState(c.Axis(input.AxisGrip).Value() > 0)
	}
	if s.cfg.SimulateThumbRest {
		c.Button(input.ButtonTouchpadTouch).SetState(c.Axis(input.AxisGripForce).Value() > 0)
	}
}

func (s *Session) fireEvents(r remote.Receiver, c *input.Controller, timeNS uint64) {
	evs, err := mapping.BuildEvents(c, timeNS, s.cfg.SendAllControllerValues, s.events[:0])
	if err != nil {
		slog.Error("session: build controller events", "side", c.Side, "error", err)
		return
	}
	s.events = evs
	if len(evs) == 0 {
		return
	}
	if err := r.FireEvents(s.handles[c.Side], evs); err != nil {
		slog.Error("session: fire controller events", "side", c.Side, "count", len(evs), "error", err)
	}
}

// addControllers registers both hands once per streaming session.
func (s *Session) addControllers(r remote.Receiver) {
	if s.controllersAdded {
		return
	}
	for side := input.Side(0); side < input.NumControllers; side++ {
		h, err := r.AddController(mapping.ControllerDesc(side))
		if err != nil {
			slog.Error("session: add controller", "side", side, "error", err)
			for prev := input.Side(0); prev < side; prev++ {
				_ = r.RemoveController(s.handles[prev])
			}
			return
		}
		s.handles[side] = h
	}
	s.controllersAdded = true
	slog.Info("session: controllers added", "left", s.handles[input.Left], "right", s.handles[input.Right])
}

func (s *Session) removeControllers(r remote.Receiver) {
	s.trackMu.Lock()
	defer s.trackMu.Unlock()

	if !s.controllersAdded {
		return
	}
	for side := input.Side(0); side < input.NumControllers; side++ {
		if err := r.RemoveController(s.handles[side]); err != nil {
			slog.Warn("session: remove controller", "side", side, "error", err)
		}
	}
	s.controllersAdded = false
}
