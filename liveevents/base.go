package liveevents

import (
	"context"
	"encoding/json"
	"io"

	"github.com/heroiclabs/nakama-common/runtime"
)

var (
	ErrInternal           = runtime.NewError("internal error occurred", 13)              // INTERNAL
	ErrBadInput           = runtime.NewError("bad input", 3)                             // INVALID_ARGUMENT
	ErrPayloadDecode      = runtime.NewError("cannot decode json", 13)                   // INTERNAL
	ErrPayloadEncode      = runtime.NewError("cannot encode json", 13)                   // INTERNAL
	ErrPayloadInvalid     = runtime.NewError("payload is invalid", 3)                    // INVALID_ARGUMENT
	ErrSessionRequired    = runtime.NewError("must be called by a session user", 7)      // PERMISSION_DENIED
	ErrSessionForbidden   = runtime.NewError("must be called by the server runtime", 7)  // PERMISSION_DENIED
	ErrTournamentNotFound = runtime.NewError("tournament not found", 5)                  // NOT_FOUND
	ErrSystemNotAvailable = runtime.NewError("system not available", 13)                 // INTERNAL
)

// LiveEvents provides a type which combines the live event gameplay systems.
type LiveEvents interface {
	GetTournamentsSystem() TournamentsSystem
}

// The SystemType identifies each of the gameplay systems.
type SystemType uint

const (
	SystemTypeUnknown SystemType = iota
	SystemTypeTournaments
)

// A System is a base type for a gameplay system.
type System interface {
	// GetType provides the runtime type of the gameplay system.
	GetType() SystemType

	// GetConfig returns the configuration type of the gameplay system.
	GetConfig() any
}

// The SystemConfig describes the configuration that each gameplay system must use to configure itself.
type SystemConfig interface {
	// GetType returns the runtime type of the gameplay system.
	GetType() SystemType

	// GetConfigFile returns the configuration file used for the data definitions in the gameplay system.
	GetConfigFile() string

	// GetRegister returns true if the gameplay system's RPCs and hooks should be registered with the game server.
	GetRegister() bool
}

var _ SystemConfig = &systemConfig{}

type systemConfig struct {
	systemType SystemType
	configFile string
	register   bool
}

func (sc *systemConfig) GetType() SystemType {
	return sc.systemType
}
func (sc *systemConfig) GetConfigFile() string {
	return sc.configFile
}
func (sc *systemConfig) GetRegister() bool {
	return sc.register
}

// WithTournamentsSystem configures a TournamentsSystem type and optionally registers its RPCs and hooks with the game server.
func WithTournamentsSystem(configFile string, register bool) SystemConfig {
	return &systemConfig{
		systemType: SystemTypeTournaments,
		configFile: configFile,
		register:   register,
	}
}

// liveEventsImpl implements the LiveEvents interface
type liveEventsImpl struct {
	// Store systems in a map by type
	systems map[SystemType]System
}

// Init initializes a LiveEvents type with the configurations provided.
func Init(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, initializer runtime.Initializer, configs ...SystemConfig) (LiveEvents, error) {
	le := &liveEventsImpl{
		systems: make(map[SystemType]System),
	}

	for _, config := range configs {
		if err := le.initSystem(ctx, logger, nk, initializer, config); err != nil {
			return nil, err
		}
	}

	return le, nil
}

// initSystem initializes a specific system based on its type
func (l *liveEventsImpl) initSystem(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, initializer runtime.Initializer, config SystemConfig) error {
	logger.Info("Initializing system type: %v, config file: %s", config.GetType(), config.GetConfigFile())

	var configBytes []byte
	if config.GetConfigFile() != "" {
		configData, err := nk.ReadFile(config.GetConfigFile())
		if err != nil {
			logger.Error("Failed to read config file %s: %v", config.GetConfigFile(), err)
			return err
		}
		configBytes, err = io.ReadAll(configData)
		if err != nil {
			logger.Error("Failed to read config file contents: %v", err)
			return err
		}
		defer configData.Close()
	}

	var system System

	switch config.GetType() {
	case SystemTypeTournaments:
		tournamentsConfig := &TournamentsConfig{}
		if len(configBytes) > 0 {
			if err := json.Unmarshal(configBytes, tournamentsConfig); err != nil {
				logger.Error("Failed to parse Tournaments system config: %v", err)
				return err
			}
		}
		system = NewNakamaTournamentsSystem(tournamentsConfig)

	default:
		logger.Error("Unknown system type: %v", config.GetType())
		return runtime.NewError("unknown system type", INVALID_ARGUMENT_ERROR_CODE) // INVALID_ARGUMENT
	}

	l.systems[config.GetType()] = system

	if config.GetRegister() {
		if err := l.registerSystemRpcs(initializer, config.GetType()); err != nil {
			return err
		}
		if err := l.registerSystemHooks(initializer, config.GetType()); err != nil {
			return err
		}
	}

	return nil
}

// registerSystemRpcs registers the appropriate RPCs for a given system type
func (l *liveEventsImpl) registerSystemRpcs(initializer runtime.Initializer, systemType SystemType) error {
	switch systemType {
	case SystemTypeTournaments:
		if err := initializer.RegisterRpc(RpcIdTournamentCreate, rpcTournamentCreate(l)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcIdTournamentGetBucketed, rpcTournamentGetBucketed(l)); err != nil {
			return err
		}

	default:
		// Unknown system type, no RPCs to register
	}

	return nil
}

// registerSystemHooks registers the host-invoked hooks for a given system type
func (l *liveEventsImpl) registerSystemHooks(initializer runtime.Initializer, systemType SystemType) error {
	switch systemType {
	case SystemTypeTournaments:
		if err := initializer.RegisterAfterAuthenticateDevice(afterAuthenticateDevice(l)); err != nil {
			return err
		}
		if err := initializer.RegisterTournamentEnd(tournamentEnd(l)); err != nil {
			return err
		}

	default:
		// Unknown system type, no hooks to register
	}

	return nil
}

func (l *liveEventsImpl) GetTournamentsSystem() TournamentsSystem {
	if sys, ok := l.systems[SystemTypeTournaments].(TournamentsSystem); ok {
		return sys
	}
	return nil
}
