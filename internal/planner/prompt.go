package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"lumina/internal/index"
	"lumina/internal/llm"
)

// maxSummaryFiles bounds the file list sent to the model.
const maxSummaryFiles = 300

const systemPrompt = `You are a file organization assistant. Given a user's instruction and files with metadata, propose how to organize them into folders.

CRITICAL: FOLLOW USER INSTRUCTIONS LITERALLY
- The user's instruction is the PRIMARY directive - follow it EXACTLY
- If user says "move all files to X" or "put all files in X", put ALL files in folder "X" - no exceptions
- Do NOT organize by file type unless the user specifically asks for it
- Do NOT create additional folders beyond what the user requested

FRESH START ON EVERY REQUEST:
- Each instruction is a NEW organization request - ignore any existing folder structure
- Files may currently be in subfolders - IGNORE their current location
- Treat ALL files as if they are in a flat list, ready to be organized from scratch

FILE INFORMATION PROVIDED:
- id: unique file identifier (use this in your response)
- name: the filename (may include path like "subfolder/file.txt" - IGNORE the path, use only the filename)
- ext: the FILE EXTENSION (e.g., .mp4, .json, .png, .pdf)
- label/tags/caption: AI-generated descriptions

STRICT RULES:
1. Return ONLY valid JSON matching this schema:
{
  "folders": {
    "<folder-name>": [<file_id>, <file_id>, ...],
    ...
  }
}

2. folder-name: use EXACTLY what the user specifies, or lowercase kebab-case if organizing by type
3. Use ONLY file_ids from the provided list - NEVER invent IDs
4. EVERY file_id must appear in exactly ONE folder
5. Maximum 2 folder levels
6. Do NOT rename files - only organize into folders
7. NEVER return empty folders - every folder must have at least one file

INSTRUCTION INTERPRETATION:

SIMPLE MOVE INSTRUCTIONS (e.g., "move all files to X", "put everything in X"):
- Put ALL files in the single folder the user specified
- Do NOT create any other folders

TYPE-BASED INSTRUCTIONS (e.g., "organize by type", "sort files by extension"):
- Only then organize files by their type/extension

MIXED INSTRUCTIONS (e.g., "put screenshots in screenshots, organize rest by type"):
- Follow the specific instruction for mentioned types
- Organize remaining files by type

JSON only. No markdown. No explanation. No prose.`

// typeHintPatterns infer what a file likely is from its name, helping the
// model identify files that carry no AI tags.
var typeHintPatterns = []struct {
	hint     string
	patterns []string
}{
	{"screenshot", []string{"screenshot", "screen shot", "screen_shot", "snip", "capture"}},
	{"invoice/receipt", []string{"invoice", "receipt", "bill", "payment"}},
	{"document", []string{"document", "doc", "report", "letter", "contract"}},
	{"photo", []string{"img_", "dsc_", "photo", "pic_", "image"}},
	{"video", []string{"vid_", "video", "mov_", "clip"}},
	{"download", []string{"download", "downloaded"}},
}

func typeHints(name string) []string {
	lower := strings.ToLower(name)
	var hints []string
	for _, th := range typeHintPatterns {
		for _, p := range th.patterns {
			if strings.Contains(lower, p) {
				hints = append(hints, th.hint)
				break
			}
		}
	}
	return hints
}

// BuildFileSummary renders a compact one-line-per-file listing for the
// model context. Long fields are truncated to keep token use bounded.
func BuildFileSummary(files []index.FileRecord) string {
	var b strings.Builder
	limit := len(files)
	if limit > maxSummaryFiles {
		limit = maxSummaryFiles
	}

	for _, f := range files[:limit] {
		name := f.Name
		if len(name) > 50 {
			name = name[:50]
		}
		caption := f.Caption
		if len(caption) > 80 {
			caption = caption[:80]
		}
		ext := strings.ToLower(filepath.Ext(name))

		tags := f.Tags
		if len(tags) > 8 {
			tags = tags[:8]
		}
		allTags := append(append([]string{}, tags...), typeHints(name)...)

		fmt.Fprintf(&b, "id:%d | %s | ext:%s | label:%s | tags:[%s]",
			f.ID, name, ext, f.Label, strings.Join(allTags, ", "))
		if caption != "" {
			fmt.Fprintf(&b, " | caption:%s", caption)
		}
		b.WriteByte('\n')
	}

	summary := strings.TrimRight(b.String(), "\n")
	if len(files) > maxSummaryFiles {
		summary += fmt.Sprintf("\n... and %d more files", len(files)-maxSummaryFiles)
	}
	return summary
}

// AutoOrganizePrefix marks instructions coming from the background
// watcher rather than an interactive session.
const AutoOrganizePrefix = "[AUTO-ORGANIZE]"

func buildUserMessage(instruction string, files []index.FileRecord) string {
	summary := BuildFileSummary(files)
	n := len(files)

	if strings.HasPrefix(instruction, AutoOrganizePrefix) {
		return fmt.Sprintf(`User instruction: %q

Files to organize (%d total):
%s

CRITICAL - FOLLOW THE INSTRUCTION LITERALLY:
- If the instruction says "move all files to X" or "put files in folder X", put ALL %d files in folder "X"
- Do NOT organize by file type unless explicitly asked
- Do NOT create extra folders - only create what the user asked for
- You MUST include EVERY file_id in your response
- Each file_id must appear in exactly ONE folder
- Total files in your response must equal %d

Propose an organization plan. Return JSON only.`, instruction, n, summary, n, n)
	}

	return fmt.Sprintf(`User instruction: %q

Files to organize (%d total):
%s

CRITICAL - FRESH ORGANIZATION:
- This is a NEW organization request - ignore any existing folder structure
- Treat ALL files as if starting fresh from a flat list
- Organize ALL %d files according to the user's instruction
- If user says "move all files to X", put ALL files in folder "X"
- NEVER return empty folders - always include all files
- Every file_id must appear exactly once in your response

Propose an organization plan. Return JSON only.`, instruction, n, summary, n)
}

// RequestPlan asks the model for an organization plan. The returned plan
// is deduplicated and completed (missing files land in a catch-all
// folder) but NOT yet validated; callers must run Validate before
// converting it to moves.
func RequestPlan(ctx context.Context, client llm.Client, instruction string, files []index.FileRecord) (*Plan, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to organize")
	}

	content, err := client.Complete(ctx, systemPrompt, buildUserMessage(instruction, files))
	if err != nil {
		return nil, fmt.Errorf("request plan: %w", err)
	}

	plan, err := ParsePlan(content)
	if err != nil {
		return nil, err
	}

	plan.Dedupe()
	all := make([]int64, len(files))
	for i, f := range files {
		all[i] = f.ID
	}
	plan.EnsureAllIncluded(all)
	return plan, nil
}

// RequestRefinement asks the model to adjust an existing plan based on
// user feedback.
func RequestRefinement(ctx context.Context, client llm.Client, instruction string, current *Plan, feedback string, files []index.FileRecord) (*Plan, error) {
	if current == nil || len(current.Folders) == 0 {
		return nil, fmt.Errorf("no plan to refine")
	}

	currentJSON, err := marshalPlan(current)
	if err != nil {
		return nil, err
	}

	user := fmt.Sprintf(`Original instruction: %q

Current plan:
%s

User feedback: %q

Files available (%d total):
%s

Based on the user feedback, provide an UPDATED organization plan.
Apply the user's requested changes to the current plan.
Return the complete updated plan as JSON only.`,
		instruction, currentJSON, feedback, len(files), BuildFileSummary(files))

	content, err := client.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("request refinement: %w", err)
	}

	plan, err := ParsePlan(content)
	if err != nil {
		return nil, err
	}
	plan.Dedupe()
	return plan, nil
}
