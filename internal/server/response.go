package server

import "fmt"

const (
	RPC_CODE_INTERNAL     = -1
	RPC_CODE_UNKNOWN_ID   = -105
	RPC_CODE_ILLEGAL_MODE = -106
)

// RPCError mirrors the error body of the Shelly RPC API.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func unknownIdResponse(id any) RPCError {
	return RPCError{
		Code:    RPC_CODE_UNKNOWN_ID,
		Message: fmt.Sprintf("Argument 'id', value %v not found!", id),
	}
}

func illegalModeResponse(id any, mode string) RPCError {
	return RPCError{
		Code:    RPC_CODE_ILLEGAL_MODE,
		Message: fmt.Sprintf("Emulator for id %v is not in %s mode!", id, mode),
	}
}

func internalErrorResponse(err error) RPCError {
	return RPCError{Code: RPC_CODE_INTERNAL, Message: err.Error()}
}
