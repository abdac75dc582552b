package dto

import (
	"sort"
	"time"

	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/utils"
)

type VariableResponseDTO struct {
	UUID             string    `json:"uuid"`
	IOT              string    `json:"iot"`
	IDName           string    `json:"id_name"`
	Type             string    `json:"type"`
	Charset          string    `json:"charset"`
	Bytes            string    `json:"bytes"`
	FunctionInstance string    `json:"function_instance"`
	Rank             int       `json:"rank"`
	Created          time.Time `json:"created"`
}

func NewVariableResponse(v *entity.Variable) VariableResponseDTO {
	return VariableResponseDTO{
		UUID:             v.UUID.String(),
		IOT:              string(v.IOT),
		IDName:           v.IDName,
		Type:             string(v.Type),
		Charset:          v.Charset,
		Bytes:            utils.EncodeB64(v.Bytes),
		FunctionInstance: v.FunctionInstanceUUID.String(),
		Rank:             v.Rank,
		Created:          v.CreatedAt,
	}
}

func NewVariableListResponse(variables []entity.Variable) []VariableResponseDTO {
	out := make([]VariableResponseDTO, 0, len(variables))
	for i := range variables {
		out = append(out, NewVariableResponse(&variables[i]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

type FunctionInstanceResponseDTO struct {
	UUID         string                `json:"uuid"`
	FunctionType string                `json:"function_type"`
	Stream       string                `json:"stream"`
	Position     entity.PositionConfig `json:"position"`
	Status       string                `json:"status"`
	Created      time.Time             `json:"created"`
	Initialized  *time.Time            `json:"initialized"`
	Updated      time.Time             `json:"updated"`
	Completed    *time.Time            `json:"completed"`
	Inputs       []VariableResponseDTO `json:"inputs"`
	Outputs      []VariableResponseDTO `json:"outputs"`
}

// NewFunctionInstanceResponse shapes one instance with its variables split
// into inputs and outputs, each ascending by rank.
func NewFunctionInstanceResponse(fi *entity.FunctionInstance, variables []entity.Variable) FunctionInstanceResponseDTO {
	position, _ := fi.ParsePosition()

	var inputs, outputs []entity.Variable
	for i := range variables {
		if variables[i].IOT == entity.VariableInput {
			inputs = append(inputs, variables[i])
		} else {
			outputs = append(outputs, variables[i])
		}
	}

	return FunctionInstanceResponseDTO{
		UUID:         fi.UUID.String(),
		FunctionType: fi.FunctionTypeUUID.String(),
		Stream:       fi.StreamUUID.String(),
		Position:     position,
		Status:       string(fi.Status),
		Created:      fi.CreatedAt,
		Initialized:  fi.InitializedAt,
		Updated:      fi.UpdatedAt,
		Completed:    fi.CompletedAt,
		Inputs:       NewVariableListResponse(inputs),
		Outputs:      NewVariableListResponse(outputs),
	}
}

type StreamResponseDTO struct {
	UUID      string                        `json:"uuid"`
	Name      string                        `json:"name"`
	Status    string                        `json:"status"`
	Workspace string                        `json:"workspace"`
	Account   string                        `json:"account"`
	Created   time.Time                     `json:"created"`
	Pushed    *time.Time                    `json:"pushed"`
	Updated   time.Time                     `json:"updated"`
	Finished  *time.Time                    `json:"finished"`
	Functions []FunctionInstanceResponseDTO `json:"functions"`
}

// NewStreamResponse shapes a stream with its full nested graph. The stream
// must be loaded with Functions and their Variables.
func NewStreamResponse(stream *entity.Stream) StreamResponseDTO {
	functions := make([]FunctionInstanceResponseDTO, 0, len(stream.Functions))
	for i := range stream.Functions {
		fi := &stream.Functions[i]
		functions = append(functions, NewFunctionInstanceResponse(fi, fi.Variables))
	}

	return StreamResponseDTO{
		UUID:      stream.UUID.String(),
		Name:      stream.Name,
		Status:    string(stream.Status),
		Workspace: stream.WorkspaceUUID.String(),
		Account:   stream.AccountUUID.String(),
		Created:   stream.CreatedAt,
		Pushed:    stream.PushedAt,
		Updated:   stream.UpdatedAt,
		Finished:  stream.FinishedAt,
		Functions: functions,
	}
}

type FunctionTypeResponseDTO struct {
	UUID        string               `json:"uuid"`
	Key         string               `json:"key"`
	VerboseName string               `json:"verbose_name"`
	Description string               `json:"description"`
	Inputs      []entity.ParamConfig `json:"inputs"`
	Outputs     []entity.ParamConfig `json:"outputs"`
	Account     string               `json:"account"`
	Created     time.Time            `json:"created"`
	Updated     time.Time            `json:"updated"`
}

func NewFunctionTypeResponse(ft *entity.FunctionType) FunctionTypeResponseDTO {
	inputs, _ := ft.InputConfigs()
	outputs, _ := ft.OutputConfigs()
	return FunctionTypeResponseDTO{
		UUID:        ft.UUID.String(),
		Key:         ft.Key,
		VerboseName: ft.VerboseName,
		Description: ft.Description,
		Inputs:      inputs,
		Outputs:     outputs,
		Account:     ft.AccountUUID.String(),
		Created:     ft.CreatedAt,
		Updated:     ft.UpdatedAt,
	}
}

type LogMessageResponseDTO struct {
	UUID             string    `json:"uuid"`
	FunctionInstance string    `json:"function_instance"`
	LogMessage       string    `json:"log_message"`
	LogLevel         string    `json:"log_level"`
	Created          time.Time `json:"created"`
}

func NewLogMessageResponse(m *entity.FunctionInstanceLogMessage) LogMessageResponseDTO {
	return LogMessageResponseDTO{
		UUID:             m.UUID.String(),
		FunctionInstance: m.FunctionInstanceUUID.String(),
		LogMessage:       m.LogMessage,
		LogLevel:         string(m.LogLevel),
		Created:          m.CreatedAt,
	}
}
