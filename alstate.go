package ethercat

// AlState is the application-layer state of a slave, per the ESM state graph.
type AlState uint8

const (
	AlStateInit             AlState = 1
	AlStatePreOperational    AlState = 2
	AlStateBootstrap         AlState = 3
	AlStateSafeOperational   AlState = 4
	AlStateOperational       AlState = 8
	AlStateInvalidOrMixed    AlState = 0
)

func (s AlState) String() string {
	switch s {
	case AlStateInit:
		return "Init"
	case AlStatePreOperational:
		return "PreOperational"
	case AlStateBootstrap:
		return "Bootstrap"
	case AlStateSafeOperational:
		return "SafeOperational"
	case AlStateOperational:
		return "Operational"
	default:
		return "InvalidOrMixed"
	}
}

// AlStateFromRegister decodes the 4-bit AL state code as reported in the
// AL Status register, mapping any code the ESM graph does not define to
// AlStateInvalidOrMixed.
func AlStateFromRegister(code uint8) AlState {
	switch code {
	case uint8(AlStateInit), uint8(AlStatePreOperational), uint8(AlStateBootstrap),
		uint8(AlStateSafeOperational), uint8(AlStateOperational):
		return AlState(code)
	default:
		return AlStateInvalidOrMixed
	}
}

// AlStatusCode is the diagnostic code latched alongside AL Status when
// change_err is set, as defined by ETG.1000.
type AlStatusCode uint16

const (
	AlStatusCodeNoError                             AlStatusCode = 0x0000
	AlStatusCodeUnspecifiedError                    AlStatusCode = 0x0001
	AlStatusCodeNoMemory                            AlStatusCode = 0x0002
	AlStatusCodeInvalidDeviceSetup                  AlStatusCode = 0x0003
	AlStatusCodeInvalidRevision                     AlStatusCode = 0x0004
	AlStatusCodeSiiInformationDoesNotMatchFirmware   AlStatusCode = 0x0006
	AlStatusCodeFirmwareUpdateNotSuccessful          AlStatusCode = 0x0007
	AlStatusCodeLicenceError                         AlStatusCode = 0x000E
	AlStatusCodeInvalidRequestedStateChange          AlStatusCode = 0x0011
	AlStatusCodeUnknownRequestedStateChange          AlStatusCode = 0x0012
	AlStatusCodeBootstrapNotSupported                AlStatusCode = 0x0013
	AlStatusCodeNoValidFirmware                      AlStatusCode = 0x0014
	AlStatusCodeInvalidMailboxConfiguration          AlStatusCode = 0x0015
	AlStatusCodeInvalidSyncManagerConfiguration       AlStatusCode = 0x0017
	AlStatusCodeNoValidInputsAvailable               AlStatusCode = 0x0018
	AlStatusCodeNoValidOutputs                       AlStatusCode = 0x0019
	AlStatusCodeSynchronizationError                 AlStatusCode = 0x001A
	AlStatusCodeSyncManagerWatchdog                  AlStatusCode = 0x001B
	AlStatusCodeInvalidSyncManagerTypes               AlStatusCode = 0x001C
	AlStatusCodeInvalidOutputConfiguration            AlStatusCode = 0x001D
	AlStatusCodeInvalidInputConfiguration              AlStatusCode = 0x001E
	AlStatusCodeInvalidWatchdogConfiguration          AlStatusCode = 0x001F
	AlStatusCodeSlaveNeedsColdStart                  AlStatusCode = 0x0020
	AlStatusCodeSlaveNeedsInit                        AlStatusCode = 0x0021
	AlStatusCodeSlaveNeedsPreop                       AlStatusCode = 0x0022
	AlStatusCodeSlaveNeedsSafeop                      AlStatusCode = 0x0023
	AlStatusCodeInvalidInputMapping                   AlStatusCode = 0x0024
	AlStatusCodeInvalidOutputMapping                  AlStatusCode = 0x0025
	AlStatusCodeInconsistentSettings                  AlStatusCode = 0x0026
	AlStatusCodeFreerunNotSupported                   AlStatusCode = 0x0027
	AlStatusCodeSynchronizationNotSupported            AlStatusCode = 0x0028
	AlStatusCodeFreerunNeeds3BufferMode                AlStatusCode = 0x0029
	AlStatusCodeBackgroundWatchdog                    AlStatusCode = 0x002A
	AlStatusCodeNoValidInputsAndOutputs                AlStatusCode = 0x002B
	AlStatusCodeFatalSyncError                         AlStatusCode = 0x002C
	AlStatusCodeNoSyncError                            AlStatusCode = 0x002D
	AlStatusCodeCycleTimeTooSmall                      AlStatusCode = 0x002E
	AlStatusCodeInvalidDcSyncConfiguration             AlStatusCode = 0x0030
	AlStatusCodeInvalidDcLatchConfiguration            AlStatusCode = 0x0031
	AlStatusCodePllError                               AlStatusCode = 0x0032
	AlStatusCodeDcSyncIoError                          AlStatusCode = 0x0033
	AlStatusCodeDcSyncTimeoutError                     AlStatusCode = 0x0034
	AlStatusCodeDcInvalidSyncCycleTime                 AlStatusCode = 0x0035
	AlStatusCodeMbxAoe                                 AlStatusCode = 0x0041
	AlStatusCodeMbxEoe                                 AlStatusCode = 0x0042
	AlStatusCodeMbxCoe                                 AlStatusCode = 0x0043
	AlStatusCodeMbxFoe                                 AlStatusCode = 0x0044
	AlStatusCodeMbxSoe                                 AlStatusCode = 0x0045
	AlStatusCodeMbxVoe                                 AlStatusCode = 0x004F
	AlStatusCodeEepromNoAccess                         AlStatusCode = 0x0050
	AlStatusCodeEepromError                            AlStatusCode = 0x0051
	AlStatusCodeExternalHardwareNotReady               AlStatusCode = 0x0052
	AlStatusCodeSlaveRestartedLocally                  AlStatusCode = 0x0060
	AlStatusCodeDeviceIdentificationValueUpdated       AlStatusCode = 0x0061
	AlStatusCodeApplicationControllerAvailable         AlStatusCode = 0x00F0
)
