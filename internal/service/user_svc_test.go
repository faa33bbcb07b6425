package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
)

func TestUserService_Login(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	mustCreate(t, db, &model.SysUser{Username: "alice", PasswordHash: string(hash), Role: model.UserRoleAdmin, Status: 1})
	blocked := model.SysUser{Username: "blocked", PasswordHash: string(hash), Role: model.UserRoleOperator, Status: 1}
	mustCreate(t, db, &blocked)
	// default 标签会吞掉零值，停用状态走显式 Update
	if err := db.Model(&blocked).Update("status", 0).Error; err != nil {
		t.Fatalf("停用用户失败: %v", err)
	}

	resp, err := svc.Login(ctx, &dto.LoginReq{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" || resp.Role != model.UserRoleAdmin {
		t.Errorf("登录响应不完整: %+v", resp)
	}

	if _, err := svc.Login(ctx, &dto.LoginReq{Username: "alice", Password: "wrong"}); err != ErrInvalidCredentials {
		t.Errorf("错密码 err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginReq{Username: "ghost", Password: "x"}); err != ErrInvalidCredentials {
		t.Errorf("未知用户 err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginReq{Username: "blocked", Password: "s3cret"}); err != ErrUserDisabled {
		t.Errorf("停用用户 err = %v, want ErrUserDisabled", err)
	}
}

func TestUserService_RefreshToken(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	mustCreate(t, db, &model.SysUser{Username: "alice", PasswordHash: string(hash), Role: model.UserRoleAdmin, Status: 1})

	login, err := svc.Login(ctx, &dto.LoginReq{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.Username != "alice" {
		t.Errorf("刷新响应 = %+v", refreshed)
	}

	// Access Token 不能当 Refresh Token 用
	if _, err := svc.RefreshToken(ctx, login.AccessToken); err != ErrInvalidToken {
		t.Errorf("用 Access 刷新 err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.RefreshToken(ctx, "garbage"); err != ErrInvalidToken {
		t.Errorf("垃圾串刷新 err = %v, want ErrInvalidToken", err)
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "root", "bootstrap-pass"); err != nil {
		t.Fatalf("EnsureAdmin 失败: %v", err)
	}
	// 幂等：已存在则什么都不做
	if err := svc.EnsureAdmin(ctx, "root", "another-pass"); err != nil {
		t.Fatalf("重复 EnsureAdmin 失败: %v", err)
	}
	var count int64
	db.Model(&model.SysUser{}).Count(&count)
	if count != 1 {
		t.Errorf("用户数 = %d, want 1", count)
	}

	// 原密码仍然有效
	if _, err := svc.Login(ctx, &dto.LoginReq{Username: "root", Password: "bootstrap-pass"}); err != nil {
		t.Errorf("引导账号登录失败: %v", err)
	}

	// 空配置直接跳过
	if err := svc.EnsureAdmin(ctx, "", ""); err != nil {
		t.Errorf("空配置 err = %v, want nil", err)
	}
}
