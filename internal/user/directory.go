package user

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
)

// The user directory is a small gRPC service that lets other processes read
// identity and moderation flags without a database connection. Messages are
// protobuf well-known types, so no generated stubs are required.
const directoryService = "craftmandu.user.v1.UserDirectory"

const (
	methodGetUser      = "/" + directoryService + "/GetUser"
	methodValidateUser = "/" + directoryService + "/ValidateUser"
	methodCheckAccess  = "/" + directoryService + "/CheckAccess"
)

// DirectoryServer exposes a Repository over gRPC.
type DirectoryServer struct {
	repo Repository
}

func NewDirectoryServer(repo Repository) *DirectoryServer { return &DirectoryServer{repo: repo} }

// Register adds the directory service to s.
func (d *DirectoryServer) Register(s *grpc.Server) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: directoryService,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetUser", Handler: d.handleGetUser},
			{MethodName: "ValidateUser", Handler: d.handleValidateUser},
			{MethodName: "CheckAccess", Handler: d.handleCheckAccess},
		},
		Metadata: "craftmandu/user/v1/directory.proto",
	}, d)
}

func (d *DirectoryServer) GetUser(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	u, err := d.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Errorf(codes.Internal, "get error: %v", err)
	}
	return userToStruct(u)
}

func (d *DirectoryServer) ValidateUser(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	u, err := d.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return wrapperspb.Bool(false), nil
		}
		return nil, status.Errorf(codes.Internal, "validate error: %v", err)
	}
	return wrapperspb.Bool(!u.IsBanned), nil
}

// CheckAccess takes {"user_id", "action"} and answers {"allowed", "reason"}.
// Unknown users are reported as NotFound so callers can tell them apart from
// a denial.
func (d *DirectoryServer) CheckAccess(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := in.GetFields()
	id, action := f["user_id"].GetStringValue(), Action(f["action"].GetStringValue())
	if id == "" || !action.Valid() {
		return nil, status.Error(codes.InvalidArgument, "user_id and a valid action are required")
	}
	u, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Errorf(codes.Internal, "check error: %v", err)
	}
	reason := ""
	if err := u.CheckAccess(action); err != nil {
		reason = err.Error()
	}
	return structpb.NewStruct(map[string]interface{}{"allowed": reason == "", "reason": reason})
}

func (d *DirectoryServer) handleGetUser(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return d.GetUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetUser}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return d.GetUser(ctx, req.(*wrapperspb.StringValue))
	})
}

func (d *DirectoryServer) handleValidateUser(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return d.ValidateUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodValidateUser}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return d.ValidateUser(ctx, req.(*wrapperspb.StringValue))
	})
}

func (d *DirectoryServer) handleCheckAccess(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return d.CheckAccess(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCheckAccess}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return d.CheckAccess(ctx, req.(*structpb.Struct))
	})
}

func userToStruct(u *User) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"id":         u.ID,
		"email":      u.Email,
		"full_name":  u.FullName,
		"role":       string(u.Role),
		"is_banned":  u.IsBanned,
		"can_chat":   u.CanChat,
		"can_order":  u.CanOrder,
		"can_review": u.CanReview,
		"created_at": u.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode user: %v", err)
	}
	return s, nil
}

func structToUser(s *structpb.Struct) *User {
	f := s.GetFields()
	u := &User{
		ID:        f["id"].GetStringValue(),
		Email:     f["email"].GetStringValue(),
		FullName:  f["full_name"].GetStringValue(),
		Role:      auth.Role(f["role"].GetStringValue()),
		IsBanned:  f["is_banned"].GetBoolValue(),
		CanChat:   f["can_chat"].GetBoolValue(),
		CanOrder:  f["can_order"].GetBoolValue(),
		CanReview: f["can_review"].GetBoolValue(),
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, f["created_at"].GetStringValue())
	return u
}

// DirectoryClient reads users from a remote DirectoryServer.
type DirectoryClient struct {
	conn grpc.ClientConnInterface
}

// DialDirectory connects to a directory server. The connection is lazy.
func DialDirectory(addr string) (*DirectoryClient, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return NewDirectoryClient(conn), conn, nil
}

func NewDirectoryClient(conn grpc.ClientConnInterface) *DirectoryClient {
	return &DirectoryClient{conn: conn}
}

// GetByID satisfies the read side of Repository used by moderation.
func (c *DirectoryClient) GetByID(ctx context.Context, id string) (*User, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodGetUser, wrapperspb.String(id), out, grpc.WaitForReady(true)); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return structToUser(out), nil
}

func (c *DirectoryClient) ValidateUser(ctx context.Context, id string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(ctx, methodValidateUser, wrapperspb.String(id), out, grpc.WaitForReady(true)); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// CheckAccess asks the directory whether id may perform action. It returns
// (false, reason) for a denial and ErrNotFound for an unknown user.
func (c *DirectoryClient) CheckAccess(ctx context.Context, id string, action Action) (bool, string, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"user_id": id, "action": string(action)})
	if err != nil {
		return false, "", err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodCheckAccess, in, out, grpc.WaitForReady(true)); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, "", ErrNotFound
		}
		return false, "", err
	}
	f := out.GetFields()
	return f["allowed"].GetBoolValue(), f["reason"].GetStringValue(), nil
}
