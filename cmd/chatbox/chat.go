package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/chat"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
	"github.com/YMiemie-cy/Multi-Agent-Chatbox/stream"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		agentName string
		sessionID string
		streaming bool
		useSSE    bool
		files     []string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message to an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := chat.SendRequest{
				SessionID: sessionID,
				AgentName: agentName,
				Text:      args[0],
			}
			artifacts, err := loadArtifacts(files)
			if err != nil {
				return err
			}
			req.Files = artifacts

			if streaming || useSSE {
				return runStreamingChat(cmd, a, req, useSSE)
			}

			res, err := a.chat.Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", res.Message.AgentName, res.Message.Text())
			fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", res.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "", "agent to talk to (default agent when empty)")
	cmd.Flags().StringVar(&sessionID, "session", "", "continue an existing session")
	cmd.Flags().BoolVar(&streaming, "stream", false, "stream the reply as NDJSON events")
	cmd.Flags().BoolVar(&useSSE, "sse", false, "stream the reply as SSE frames")
	cmd.Flags().StringSliceVar(&files, "file", nil, "attach a text or image file (repeatable)")
	return cmd
}

func runStreamingChat(cmd *cobra.Command, a *app, req chat.SendRequest, useSSE bool) error {
	res, err := a.chat.Stream(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var w stream.Writer = stream.NewNDJSONWriter(out)
	var sse *stream.SSEWriter
	if useSSE {
		sse = stream.NewSSEWriter(out)
		w = sse
	}

	if err := w.Write(stream.Meta(res.SessionID, res.MessageID, res.Agent)); err != nil {
		return err
	}
	for chunk := range res.Chunks {
		if err := w.Write(stream.Content(chunk)); err != nil {
			return err
		}
	}
	if streamErr := <-res.Err; streamErr != nil {
		return w.Write(stream.Error(streamErr))
	}
	if sse != nil {
		return sse.Done()
	}
	return nil
}

// loadArtifacts turns file paths into artifacts: known image extensions are
// base64-encoded for inline delivery, everything else is read as text.
// Binary document extraction (PDF, Word) stays outside this tool.
func loadArtifacts(paths []string) ([]core.FileArtifact, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	artifacts := make([]core.FileArtifact, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
		artifact := core.FileArtifact{Filename: filepath.Base(p), FileType: ext}
		switch ext {
		case "png", "jpg", "jpeg", "gif", "webp":
			artifact.ImageBase64 = base64.StdEncoding.EncodeToString(data)
		default:
			artifact.Text = string(data)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}
