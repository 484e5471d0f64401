package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
	"github.com/shelfgate/shelfgate/internal/hardware"
	"github.com/shelfgate/shelfgate/internal/store"
)

// Operation selects which circulation workflow a session runs.
type Operation string

const (
	OpRegisterAsset    Operation = "register-asset"
	OpRegisterIdentity Operation = "register-identity"
	OpIssue            Operation = "issue"
	OpReturn           Operation = "return"
)

// AssetForm carries the operator-entered details for asset registration.
type AssetForm struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
}

// IdentityForm carries the operator-entered details for enrollment.
type IdentityForm struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
}

// Request is one typed operation request accepted by the Orchestrator.
type Request struct {
	Op       Operation
	Asset    AssetForm
	Identity IdentityForm
}

// Config is the per-session workflow policy.
type Config struct {
	Tolerance  float64       // maximum embedding distance for a match
	LoanPeriod time.Duration // due date offset from issue time
	// OperatorDwell is the deliberate pause before each capture so a
	// human can align with the camera. Workflow pacing, not backpressure.
	OperatorDwell time.Duration
}

// Session drives one circulation workflow from trigger to terminal
// status: hardware acquisition, biometric matching, store commit.
// Steps execute strictly in sequence; every error is terminal and
// already-applied hardware actions are never rolled back.
type Session struct {
	store  store.Store
	reader hardware.TagReader
	camera hardware.Camera
	status *StatusCell
	cfg    Config

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a session runner over the given ports and store.
func New(st store.Store, reader hardware.TagReader, camera hardware.Camera, status *StatusCell, cfg Config) *Session {
	if cfg.Tolerance == 0 {
		cfg.Tolerance = biometric.DefaultTolerance
	}
	return &Session{
		store:  st,
		reader: reader,
		camera: camera,
		status: status,
		cfg:    cfg,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Run executes the requested operation to its terminal phase. The
// terminal (phase, message) is always written to the status cell; the
// returned error carries the failure kind for logging.
func (s *Session) Run(ctx context.Context, req Request) error {
	var (
		msg string
		f   *Failure
	)
	switch req.Op {
	case OpRegisterAsset:
		msg, f = s.registerAsset(ctx, req.Asset)
	case OpRegisterIdentity:
		msg, f = s.registerIdentity(ctx, req.Identity)
	case OpIssue:
		msg, f = s.issue(ctx)
	case OpReturn:
		msg, f = s.returnAsset(ctx)
	default:
		f = fail(KindInternal, fmt.Sprintf("Unknown operation %q", req.Op))
	}
	if f != nil {
		s.status.Set(PhaseError, f.Message)
		return f
	}
	s.status.Set(PhaseSuccess, msg)
	return nil
}

func internalErr(err error) *Failure {
	return failErr(KindInternal, "Internal error", err)
}

// readTag runs the bounded tag read step.
func (s *Session) readTag(ctx context.Context) (string, *Failure) {
	s.status.Set(PhaseReadingTag, "Place the item on the reader...")
	tag, err := s.reader.Read(ctx)
	if err != nil {
		return "", failErr(KindHardwareTimeout, "Failed to read tag!", err)
	}
	return tag, nil
}

// captureSingleFace captures a frame and requires exactly one face in
// it. Zero or many faces is a branch, not a driver error.
func (s *Session) captureSingleFace(ctx context.Context, phase Phase) (hardware.Frame, hardware.FaceRegion, *Failure) {
	s.status.Set(phase, "Look at the camera...")
	s.sleep(s.cfg.OperatorDwell)

	frame, err := s.camera.CaptureFrame(ctx)
	if err != nil {
		return nil, hardware.FaceRegion{}, failErr(KindHardwareTimeout, "Camera capture failed!", err)
	}
	regions, err := s.camera.DetectFaces(ctx, frame)
	if err != nil {
		return nil, hardware.FaceRegion{}, failErr(KindBiometricEncodeFailed, "Face detection failed!", err)
	}
	if len(regions) == 0 {
		return nil, hardware.FaceRegion{}, fail(KindBiometricAmbiguous, "No face detected!")
	}
	if len(regions) > 1 {
		return nil, hardware.FaceRegion{}, fail(KindBiometricAmbiguous, "Multiple faces detected!")
	}
	return frame, regions[0], nil
}

func (s *Session) encodeFace(ctx context.Context, frame hardware.Frame, region hardware.FaceRegion) (biometric.Embedding, *Failure) {
	embedding, err := s.camera.EncodeFace(ctx, frame, region)
	if err != nil {
		return nil, failErr(KindBiometricEncodeFailed, "Failed to encode face!", err)
	}
	if len(embedding) != biometric.EmbeddingDim {
		return nil, fail(KindBiometricEncodeFailed, "Failed to encode face!")
	}
	return embedding, nil
}

// registerAsset: ReadingTag -> Committing.
func (s *Session) registerAsset(ctx context.Context, form AssetForm) (string, *Failure) {
	tag, f := s.readTag(ctx)
	if f != nil {
		return "", f
	}

	if err := s.reader.Write(ctx, tag, form.Title+"|"+form.Author); err != nil {
		return "", failErr(KindHardwareTimeout, "Failed to write tag!", err)
	}

	s.status.Set(PhaseCommitting, "Registering asset...")
	asset := &store.Asset{
		TagID:    tag,
		Title:    form.Title,
		Author:   form.Author,
		ISBN:     form.ISBN,
		Category: form.Category,
	}
	if err := s.store.InsertAsset(ctx, asset); err != nil {
		if errors.Is(err, store.ErrDuplicateTag) {
			return "", fail(KindAssetConstraint, "Tag already registered!")
		}
		return "", internalErr(err)
	}
	return fmt.Sprintf("Asset registered! ID: %d", asset.ID), nil
}

// registerIdentity: CapturingFace -> Encoding -> Committing.
func (s *Session) registerIdentity(ctx context.Context, form IdentityForm) (string, *Failure) {
	frame, region, f := s.captureSingleFace(ctx, PhaseCapturingFace)
	if f != nil {
		return "", f
	}

	s.status.Set(PhaseEncoding, "Encoding face...")
	embedding, f := s.encodeFace(ctx, frame, region)
	if f != nil {
		return "", f
	}

	s.status.Set(PhaseCommitting, "Enrolling "+form.Name+"...")
	ident := &store.Identity{
		Name:      form.Name,
		Contact:   form.Contact,
		Phone:     form.Phone,
		Embedding: embedding,
	}
	if err := s.store.InsertIdentity(ctx, ident); err != nil {
		if errors.Is(err, store.ErrDuplicateContact) {
			return "", fail(KindIdentityConstraint, "Contact already registered!")
		}
		return "", internalErr(err)
	}
	return fmt.Sprintf("Identity %s enrolled!", form.Name), nil
}

// issue: ReadingTag -> LookupAsset -> IdentifyingFace -> MatchingGallery -> Committing.
func (s *Session) issue(ctx context.Context) (string, *Failure) {
	tag, f := s.readTag(ctx)
	if f != nil {
		return "", f
	}

	s.status.Set(PhaseLookingUp, "Looking up asset...")
	asset, err := s.store.FindAssetByTag(ctx, tag)
	if err != nil {
		return "", internalErr(err)
	}
	if asset == nil || asset.Status != store.AssetAvailable {
		return "", fail(KindAssetConstraint, "Asset unavailable!")
	}

	frame, region, f := s.captureSingleFace(ctx, PhaseIdentifying)
	if f != nil {
		return "", f
	}
	embedding, f := s.encodeFace(ctx, frame, region)
	if f != nil {
		return "", f
	}

	s.status.Set(PhaseMatching, "Matching against enrolled identities...")
	gallery, err := s.store.Gallery(ctx)
	if err != nil {
		return "", internalErr(err)
	}
	entry, ok := biometric.MatchGallery(embedding, gallery, s.cfg.Tolerance)
	if !ok {
		return "", fail(KindNoMatch, "User not recognized!")
	}

	s.status.Set(PhaseCommitting, "Issuing to "+entry.Name+"...")
	issuedAt := s.now()
	dueAt := issuedAt.Add(s.cfg.LoanPeriod)
	if _, err := s.store.IssueAsset(ctx, asset.ID, entry.IdentityID, tag, issuedAt, dueAt); err != nil {
		if errors.Is(err, store.ErrAssetUnavailable) {
			return "", fail(KindAssetConstraint, "Asset unavailable!")
		}
		return "", internalErr(err)
	}
	return fmt.Sprintf("'%s' issued to %s!", asset.Title, entry.Name), nil
}

// returnAsset: ReadingTag -> LookupOpenTransaction -> VerifyingFace -> Committing.
// Verification is 1:1 against the loan holder's enrolled embedding.
func (s *Session) returnAsset(ctx context.Context) (string, *Failure) {
	tag, f := s.readTag(ctx)
	if f != nil {
		return "", f
	}

	s.status.Set(PhaseLookingUp, "Looking up open transaction...")
	loan, err := s.store.FindOpenLoanByTag(ctx, tag)
	if err != nil {
		return "", internalErr(err)
	}
	if loan == nil {
		return "", fail(KindNotFound, "No active transaction!")
	}

	frame, region, f := s.captureSingleFace(ctx, PhaseVerifying)
	if f != nil {
		return "", f
	}
	embedding, f := s.encodeFace(ctx, frame, region)
	if f != nil {
		return "", f
	}

	if !biometric.Verify(embedding, loan.Embedding, s.cfg.Tolerance) {
		return "", fail(KindFaceMismatch, "Face mismatch!")
	}

	s.status.Set(PhaseCommitting, "Processing return...")
	if err := s.store.ReturnAsset(ctx, loan.TransactionID, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fail(KindNotFound, "No active transaction!")
		}
		return "", internalErr(err)
	}
	return fmt.Sprintf("'%s' returned by %s!", loan.AssetTitle, loan.IdentityName), nil
}
