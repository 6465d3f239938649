package vfs

import "fmt"

// FileResult is the outcome of GetFile, numbered as the host expects.
type FileResult int

const (
	FileOK FileResult = iota
	FileExists
	FileNotFound
	FileReadError
	FileWriteError
	FileUserAbort
	FileNotSupported
	FileExistsResumeAllowed
)

func (r FileResult) String() string {
	switch r {
	case FileOK:
		return "OK"
	case FileExists:
		return "EXISTS"
	case FileNotFound:
		return "NOT_FOUND"
	case FileReadError:
		return "READ_ERROR"
	case FileWriteError:
		return "WRITE_ERROR"
	case FileUserAbort:
		return "USER_ABORT"
	case FileNotSupported:
		return "NOT_SUPPORTED"
	case FileExistsResumeAllowed:
		return "EXISTS_RESUME_ALLOWED"
	default:
		return fmt.Sprintf("FileResult(%d)", int(r))
	}
}

// ExecResult is the outcome of ExecuteFile.
type ExecResult int

const (
	// ExecSymlink asks the host to follow a link (unused by this plugin)
	ExecSymlink ExecResult = -2

	// ExecYourself asks the host to handle the verb itself
	ExecYourself ExecResult = -1

	ExecOK    ExecResult = 0
	ExecError ExecResult = 1
)

func (r ExecResult) String() string {
	switch r {
	case ExecSymlink:
		return "SYMLINK"
	case ExecYourself:
		return "YOURSELF"
	case ExecOK:
		return "OK"
	case ExecError:
		return "ERROR"
	default:
		return fmt.Sprintf("ExecResult(%d)", int(r))
	}
}

// FieldType describes a content field or the outcome of a value query.
type FieldType int

const (
	FieldNoMoreFields FieldType = 0
	FieldString       FieldType = 8
	FieldNoSuchField  FieldType = -1
	FieldEmpty        FieldType = -3
)

func (t FieldType) String() string {
	switch t {
	case FieldNoMoreFields:
		return "NO_MORE_FIELDS"
	case FieldString:
		return "STRING"
	case FieldNoSuchField:
		return "NO_SUCH_FIELD"
	case FieldEmpty:
		return "FIELD_EMPTY"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// CopyFlags modify GetFile.
type CopyFlags uint32

const (
	CopyOverwrite CopyFlags = 1 << iota
	CopyResume
	CopyMove
	CopySameCase
	CopyDifferentCase
)

// MessageType classifies messages sent to the host Log callback.
type MessageType int

const (
	MsgConnect MessageType = iota + 1
	MsgDisconnect
	MsgDetails
	MsgTransferComplete
	MsgConnectComplete
	MsgImportantError
	MsgOperationComplete
)

func (m MessageType) String() string {
	switch m {
	case MsgConnect:
		return "CONNECT"
	case MsgDisconnect:
		return "DISCONNECT"
	case MsgDetails:
		return "DETAILS"
	case MsgTransferComplete:
		return "TRANSFER_COMPLETE"
	case MsgConnectComplete:
		return "CONNECT_COMPLETE"
	case MsgImportantError:
		return "IMPORTANT_ERROR"
	case MsgOperationComplete:
		return "OPERATION_COMPLETE"
	default:
		return fmt.Sprintf("MessageType(%d)", int(m))
	}
}

// AttrReparsePoint marks entries the host should open as directories.
const AttrReparsePoint uint32 = 0x400
