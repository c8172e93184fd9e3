package streamio

import "context"

// MovePath moves an object from src to dst by copying then deleting. This
// works across different backends.
//
// If srcBackend and dstBackend are the same ExtendedBackend with Move
// support, consider using ExtendedBackend.Move() for a server-side move
// instead, or call SmartMove which does that automatically.
func MovePath(ctx context.Context, srcBackend Backend, srcPath string, dstBackend Backend, dstPath string) error {
	if err := CopyPath(ctx, srcBackend, srcPath, dstBackend, dstPath); err != nil {
		return err
	}

	return srcBackend.Delete(ctx, srcPath)
}

// SmartMove attempts a server-side move first (when src and dst are the
// same ExtendedBackend and it advertises Move support), falling back to
// MovePath's copy-then-delete otherwise.
func SmartMove(ctx context.Context, srcBackend Backend, srcPath string, dstBackend Backend, dstPath string) error {
	if srcBackend == dstBackend {
		if ext, ok := srcBackend.(ExtendedBackend); ok && ext.Features().Move {
			err := ext.Move(ctx, srcPath, dstPath)
			if err == nil || err != ErrNotSupported {
				return err
			}
		}
	}

	return MovePath(ctx, srcBackend, srcPath, dstBackend, dstPath)
}
